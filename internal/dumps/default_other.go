//go:build !windows

package dumps

// DefaultDirectory reports no default on non-Windows hosts. The well-known
// dump locations are Windows paths, and there is no registry to consult.
func DefaultDirectory() (string, bool) {
	return "", false
}
