package inertiacore

import (
	"net/http"

	"go.inout.gg/inertiacore/internal/inertiaheader"
	"go.inout.gg/inertiacore/internal/inertiaredirect"
)

// LocationResult redirects the client to a URL outside of the Inertia app.
//
// It is distinct from a page response: for Inertia requests it is written
// as 409 Conflict with the X-Inertia-Location header, which makes the
// client perform a full page visit.
type LocationResult struct {
	URL string
}

func (l LocationResult) Write(w http.ResponseWriter, r *http.Request) error {
	Location(w, r, l.URL)
	return nil
}

// Location redirects to an external URL outside of the Inertia app.
//
// For Inertia requests, it uses a 409 Conflict response with X-Inertia-Location header.
// For regular requests, it performs a standard HTTP redirect.
func Location(w http.ResponseWriter, r *http.Request, url string) {
	if isInertiaRequest(r) {
		h := w.Header()

		h.Del(inertiaheader.HeaderVary)
		h.Del(inertiaheader.HeaderXInertia)
		h.Set(inertiaheader.HeaderXInertiaLocation, url) // redirect URL
		w.WriteHeader(http.StatusConflict)               // 409 Conflict

		return
	}

	inertiaredirect.Redirect(w, r, url)
}

// Redirect sends a redirect response to an Inertia app page.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	inertiaredirect.Redirect(w, r, url)
}

// forceReload makes the client discard its state and reload the current URL.
func forceReload(w http.ResponseWriter, r *http.Request) {
	Location(w, r, r.URL.RequestURI())
}
