//go:build darwin && (amd64 || arm64)

package platform

import (
	"sync"

	"github.com/ebitengine/purego"
)

var (
	threadIDOnce sync.Once
	threadIDFn   func(thread uintptr, id *uint64) int32
)

// ThreadID returns the system-wide id of the calling OS thread. The result is
// only stable while the calling goroutine is locked to its thread.
func ThreadID() int64 {
	threadIDOnce.Do(func() {
		lib, err := purego.Dlopen("/usr/lib/libSystem.B.dylib", purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			return
		}
		purego.RegisterLibFunc(&threadIDFn, lib, "pthread_threadid_np")
	})
	if threadIDFn == nil {
		return 0
	}
	var id uint64
	// A zero thread handle selects the calling thread.
	threadIDFn(0, &id)
	return int64(id)
}
