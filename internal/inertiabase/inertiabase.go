// Package inertiabase holds the wire types shared between the renderer
// and the server-side rendering gateway.
package inertiabase

// Page is the page object exchanged with the client.
//
// Field order matches the protocol wire shape. Version is nil when no
// asset version is configured and is then encoded as null.
type Page struct {
	Component string         `json:"component"`
	Props     map[string]any `json:"props"`
	URL       string         `json:"url"`
	Version   *string        `json:"version"`
}
