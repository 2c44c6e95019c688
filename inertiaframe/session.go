package inertiaframe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/gob"
	"fmt"
	"net/http"
	"sync"

	"go.inout.gg/foundations/http/httpcookie"

	"go.inout.gg/inertiacore"
)

type sessCtx struct{}

var kSessCtx = sessCtx{} //nolint:gochecknoglobals

const (
	SessionCookieName = "_inertiaframe"
	SessionPath       = "/"
)

//nolint:gochecknoglobals
var bufPool = sync.Pool{New: func() any { return bytes.NewBuffer(nil) }}

//nolint:gochecknoinits
func init() {
	gob.Register(&session{}) //nolint:exhaustruct
	gob.Register([]inertiacore.ValidationError(nil))
}

// session stores flash data between an action and the page rendered after
// its redirect: validation errors, their error bag and the last visited page.
// It lives in a cookie; flash fields are cleared once read.
type session struct {
	ErrorBag_         string                        //nolint:revive
	Path_             string                        //nolint:revive
	ValidationErrors_ []inertiacore.ValidationError //nolint:revive
}

// sessionFromRequest retrieves the session of the request. If the request
// carries no session cookie, a new session is created.
func sessionFromRequest(r *http.Request) (*session, error) {
	sess, ok := r.Context().Value(kSessCtx).(*session)
	if ok && sess != nil {
		return sess, nil
	}

	sess = &session{} //nolint:exhaustruct

	if val := httpcookie.Get(r, SessionCookieName); val != "" {
		b, err := base64.RawURLEncoding.DecodeString(val)
		if err != nil {
			return nil, fmt.Errorf("inertiaframe: failed to decode session cookie: %w", err)
		}

		if err := gob.NewDecoder(bytes.NewReader(b)).Decode(sess); err != nil {
			return nil, fmt.Errorf("inertiaframe: failed to decode session: %w", err)
		}
	}

	// Keep the session for later lookups within the same request.
	*r = *r.WithContext(context.WithValue(r.Context(), kSessCtx, sess))

	return sess, nil
}

// sessionOrEmpty is like sessionFromRequest, but replaces a malformed
// session with an empty one.
func sessionOrEmpty(r *http.Request) *session {
	sess, err := sessionFromRequest(r)
	if err != nil {
		d("discarding malformed session: %v", err)

		sess = &session{} //nolint:exhaustruct
		*r = *r.WithContext(context.WithValue(r.Context(), kSessCtx, sess))
	}

	return sess
}

// ValidationErrors returns validation errors flashed by the previous request.
func (s *session) ValidationErrors() []inertiacore.ValidationError {
	ret := s.ValidationErrors_
	s.ValidationErrors_ = nil

	return ret
}

// ErrorBag returns the error bag of the flashed validation errors.
func (s *session) ErrorBag() string {
	ret := s.ErrorBag_
	s.ErrorBag_ = ""

	return ret
}

// Referer returns the last visited page stored in the session.
func (s *session) Referer() string { return s.Path_ }

// Clear deletes the session cookie from the client.
func (s *session) Clear(w http.ResponseWriter, r *http.Request) {
	httpcookie.Delete(w, r, SessionCookieName)
}

// Save persists the session to a cookie sent to the client.
func (s *session) Save(w http.ResponseWriter) error {
	buf := bufPool.Get().(*bytes.Buffer) //nolint:forcetypeassert

	defer func() {
		buf.Reset()
		bufPool.Put(buf)
	}()

	if err := gob.NewEncoder(buf).Encode(s); err != nil {
		return fmt.Errorf("inertiaframe: failed to encode session: %w", err)
	}

	//nolint:exhaustruct
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(buf.Bytes()),
		Path:     SessionPath,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}
