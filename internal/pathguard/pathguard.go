// Package pathguard is the authorization boundary for client-supplied file
// paths: only absolute paths below the overlay roots may be served.
package pathguard

import "strings"

// AllowedRoots are the only path prefixes a client may read from.
var AllowedRoots = []string{"/overlays/", "/bee_overlays/"}

// IsSafe reports whether p may be served to a client.
func IsSafe(p string) bool {
	if p == "" || p[0] != '/' {
		return false
	}
	if strings.Contains(p, "..") {
		return false
	}
	for _, root := range AllowedRoots {
		if strings.HasPrefix(p, root) {
			return true
		}
	}
	return false
}

// Normalize undoes separators that some clients leave encoded or use in
// Windows form. It runs before IsSafe, never instead of it.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "%2F", "/")
	p = strings.ReplaceAll(p, "%2f", "/")
	return strings.ReplaceAll(p, "\\", "/")
}
