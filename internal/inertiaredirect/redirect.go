package inertiaredirect

import (
	"net/http"
	"slices"

	"go.inout.gg/foundations/debug"
)

//nolint:gochecknoglobals
var d = debug.Debuglog("inertia/redirect")

// https://inertiajs.com/redirects#303-response-code
//
//nolint:gochecknoglobals
var seeOtherMethods = []string{http.MethodPatch, http.MethodPut, http.MethodDelete}

// StatusFor returns the redirect status code for the request method.
//
// PUT, PATCH and DELETE requests must be redirected with 303 See Other,
// otherwise the client repeats the original method against the new URL.
func StatusFor(method string) int {
	if slices.Contains(seeOtherMethods, method) {
		return http.StatusSeeOther
	}

	return http.StatusFound
}

// Redirect redirects the client to the specified URL.
//
// It follows the redirect specification described here: https://inertiajs.com/redirects
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	statusCode := StatusFor(r.Method)

	d("Redirecting to %s with status code %d", url, statusCode)

	http.Redirect(w, r, url, statusCode)
}
