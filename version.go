package inertiacore

// Version identifies the current asset version.
//
// It is either a literal string or a resolver function called every time
// the version is read. The zero Version means no version is configured.
type Version struct {
	resolve func() string
	literal string
	set     bool
}

// VersionString returns a Version holding the literal s.
func VersionString(s string) Version {
	return Version{literal: s, set: true} //nolint:exhaustruct
}

// VersionFunc returns a Version resolved by calling fn on every read.
//
// fn must be safe for concurrent use.
func VersionFunc(fn func() string) Version {
	if fn == nil {
		return Version{} //nolint:exhaustruct
	}

	return Version{resolve: fn, set: true} //nolint:exhaustruct
}

// Resolve returns the version string and whether a version is set.
func (v Version) Resolve() (string, bool) {
	if !v.set {
		return "", false
	}

	if v.resolve != nil {
		return v.resolve(), true
	}

	return v.literal, true
}
