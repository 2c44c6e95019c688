package inertiaframe

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.inout.gg/inertiacore"
	"go.inout.gg/inertiacore/internal/inertiaheader"
)

//nolint:gochecknoglobals
var tpl = template.Must(template.New("frame").Parse(`<html><body>{{ .InertiaBody }}</body></html>`))

type newUserPage struct {
	Title string `inertia:"title"`
}

func (*newUserPage) Component() string { return "Users/New" }

type newUserEndpoint struct{}

func (*newUserEndpoint) Meta() *Meta { return &Meta{Method: http.MethodGet, Path: "/users/new"} }

func (*newUserEndpoint) Execute(context.Context, *Request[struct{}]) (*Response, error) {
	return NewResponse(&newUserPage{Title: "New user"}, nil), nil
}

type createUser struct {
	Name string `form:"name" json:"name"`
}

type createUserEndpoint struct {
	method string
}

func (e *createUserEndpoint) Meta() *Meta { return &Meta{Method: e.method, Path: "/users"} }

func (*createUserEndpoint) Execute(_ context.Context, req *Request[createUser]) (*Response, error) {
	switch req.Message.Name {
	case "external":
		return NewLocationResponse("https://example.com/sso"), nil
	case "back":
		return NewRedirectBackResponse(), nil
	default:
		return NewRedirectResponse("/users/" + req.Message.Name), nil
	}
}

//nolint:gochecknoglobals
var requireName = ValidatorFunc(func(v any) error {
	if msg, ok := v.(*createUser); ok && msg.Name == "" {
		return inertiacore.ValidationErrors{inertiacore.NewValidationError("name", "Name is required")}
	}

	return nil
})

func newApp(t *testing.T, method string) http.Handler {
	t.Helper()

	f := inertiacore.New(tpl, nil)
	mux := http.NewServeMux()

	Mount(mux, &newUserEndpoint{}, nil)
	Mount(mux, &createUserEndpoint{method: method}, &MountOpts{Validator: requireName})

	return f.Middleware()(mux)
}

func inertiaRequest(method, target, contentType, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set(inertiaheader.HeaderXInertia, "true")

	if contentType != "" {
		r.Header.Set(inertiaheader.HeaderContentType, contentType)
	}

	return r
}

func TestMount_ValidationErrorsFlashedToPreviousPage(t *testing.T) {
	t.Parallel()

	app := newApp(t, http.MethodPost)

	r := inertiaRequest(http.MethodPost, "/users", mediaTypeJSON, `{"name":""}`)
	r.Header.Set(inertiaheader.HeaderReferer, "/users/new")
	r.Header.Set(inertiaheader.HeaderXInertiaErrorBag, "createUser")

	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/users/new", w.Header().Get(inertiaheader.HeaderLocation))

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "validation errors are flashed in a cookie")

	r = inertiaRequest(http.MethodGet, "/users/new", "", "")
	for _, c := range cookies {
		r.AddCookie(c)
	}

	w = httptest.NewRecorder()
	app.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Props struct {
			Errors map[string]map[string]string `json:"errors"`
			Title  string                       `json:"title"`
		} `json:"props"`
		Component string `json:"component"`
	}

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))

	assert.Equal(t, "Users/New", page.Component)
	assert.Equal(t, "New user", page.Props.Title)
	assert.Equal(t, "Name is required", page.Props.Errors["createUser"]["name"])

	// Flash errors are consumed by the render.
	r = inertiaRequest(http.MethodGet, "/users/new", "", "")
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}

	w = httptest.NewRecorder()
	app.ServeHTTP(w, r)

	assert.Contains(t, w.Body.String(), `"errors":{}`)
}

func TestMount_Redirects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		method       string
		contentType  string
		body         string
		wantLocation string
		wantHeader   string
		wantStatus   int
	}{
		{
			name:         "form request redirects to the given URL",
			method:       http.MethodPost,
			contentType:  mediaTypeForm,
			body:         url.Values{"name": {"alice"}}.Encode(),
			wantStatus:   http.StatusFound,
			wantLocation: "/users/alice",
		},
		{
			name:         "redirect after PUT is 303",
			method:       http.MethodPut,
			contentType:  mediaTypeJSON,
			body:         `{"name":"bob"}`,
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/users/bob",
		},
		{
			name:         "redirect back uses the referer",
			method:       http.MethodPost,
			contentType:  mediaTypeJSON,
			body:         `{"name":"back"}`,
			wantStatus:   http.StatusFound,
			wantLocation: "/users/new",
		},
		{
			name:        "location response forces a full visit",
			method:      http.MethodPost,
			contentType: mediaTypeJSON,
			body:        `{"name":"external"}`,
			wantStatus:  http.StatusConflict,
			wantHeader:  "https://example.com/sso",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := inertiaRequest(tt.method, "/users", tt.contentType, tt.body)
			r.Header.Set(inertiaheader.HeaderReferer, "/users/new")

			w := httptest.NewRecorder()
			newApp(t, tt.method).ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantLocation, w.Header().Get(inertiaheader.HeaderLocation))
			assert.Equal(t, tt.wantHeader, w.Header().Get(inertiaheader.HeaderXInertiaLocation))
		})
	}
}

func TestSession_SaveRoundTrip(t *testing.T) {
	t.Parallel()

	sess := &session{
		ErrorBag_: "login",
		Path_:     "/login",
		ValidationErrors_: []inertiacore.ValidationError{
			inertiacore.NewValidationError("email", "Invalid email").ValidationErrors()[0],
		},
	}

	w := httptest.NewRecorder()
	require.NoError(t, sess.Save(w))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}

	got, err := sessionFromRequest(r)
	require.NoError(t, err)

	assert.Equal(t, "/login", got.Referer())
	assert.Equal(t, "login", got.ErrorBag())
	assert.Empty(t, got.ErrorBag(), "flash data is cleared once read")

	errs := got.ValidationErrors()
	require.Len(t, errs, 1)
	assert.Equal(t, "email", errs[0].Field())
	assert.Equal(t, "Invalid email", errs[0].Error())
	assert.Nil(t, got.ValidationErrors())
}

func TestSession_Malformed(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "!!!"}) //nolint:exhaustruct

	_, err := sessionFromRequest(r)
	require.Error(t, err)

	assert.NotNil(t, sessionOrEmpty(r))
}
