//go:build linux

package linker

import (
	"os"

	"golang.org/x/sys/unix"
)

// reflink clones src into dst via FICLONE (copy-on-write on btrfs and
// xfs). Filesystems without reflink support return an error and the
// caller falls back to hard links.
func reflink(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if err := unix.IoctlFileClone(int(out.Fd()), int(in.Fd())); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
