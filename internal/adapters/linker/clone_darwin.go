//go:build darwin

package linker

import "golang.org/x/sys/unix"

// reflink clones src into dst via clonefile, APFS's copy-on-write copy.
func reflink(src, dst string) error {
	return unix.Clonefile(src, dst, 0)
}
