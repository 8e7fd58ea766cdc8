//go:build linux || android

package platform

import "syscall"

// ThreadID returns the kernel id of the calling OS thread. The result is only
// stable while the calling goroutine is locked to its thread.
func ThreadID() int64 {
	return int64(syscall.Gettid())
}
