//go:build !linux && !android && !(darwin && (amd64 || arm64))

package platform

// ThreadID returns 0 on platforms without a thread id source; all threads
// then share one attachment record.
func ThreadID() int64 {
	return 0
}
