//go:build !linux && !darwin

package linker

import "errors"

var errReflinkUnsupported = errors.New("reflink not supported on this platform")

// reflink always fails here; the clone strategy falls back to hard links
// and copies.
func reflink(_, _ string) error {
	return errReflinkUnsupported
}
