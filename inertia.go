// Package inertiacore implements the server side of the Inertia.js
// protocol on top of "net/http" and "html/template".
//
// A Factory renders pages: protocol-aware requests receive the JSON page
// object, other requests receive the root HTML template with the page
// embedded (or pre-rendered by an SSR service). The Middleware installs
// the per-request state used for shared data and the SSR result cache
// and enforces asset version checks.
//
// For detailed protocol documentation, visit https://inertiajs.com/the-protocol
package inertiacore

import "go.inout.gg/foundations/debug"

//nolint:gochecknoglobals
var d = debug.Debuglog("inertia")
