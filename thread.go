package qjni

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/2gis/qtandroidextensions-sub000/internal/platform"
	"github.com/2gis/qtandroidextensions-sub000/jni"
	"go.uber.org/zap"
)

// threadState is what the bridge knows about one OS thread.
type threadState struct {
	vm jni.VM
	// attached is set when the bridge attached the thread itself; threads
	// that were already attached are never detached by the bridge.
	attached bool
	// teardown holds AtThreadRelease callbacks. They are kept when the
	// thread is rebound to another VM.
	teardown []func()
}

var (
	threadsMu sync.Mutex
	threads   = make(map[int64]*threadState)
)

// noteThread records the calling thread's attachment to vm. It returns the
// state for tid.
func noteThread(tid int64, vm jni.VM, attachedHere bool) *threadState {
	threadsMu.Lock()
	defer threadsMu.Unlock()
	st, ok := threads[tid]
	switch {
	case !ok:
		st = &threadState{vm: vm}
		threads[tid] = st
	case st.vm != vm:
		st = &threadState{vm: vm, teardown: st.teardown}
		threads[tid] = st
	}
	if attachedHere {
		st.attached = true
	}
	return st
}

// detachThread is the teardown callback installed for threads the bridge
// attached. Teardown can run after the VM was unregistered or replaced, in
// which case the thread is left alone.
func detachThread(tid int64, vm jni.VM) {
	if currentVM() != vm {
		log().Debug("skipping detach, vm no longer registered", zap.Int64("tid", tid))
		return
	}
	if st := vm.DetachCurrentThread(); st != jni.OK {
		log().Warn("detach failed", zap.Int64("tid", tid), zap.Stringer("status", st))
		return
	}
	log().Debug("thread detached", zap.Int64("tid", tid))
}

// ReleaseThread runs the teardown callbacks of the calling OS thread, last
// registered first, and then detaches the thread if the bridge attached it.
// A thread that was attached before its first bridge call is left attached.
// It is safe to call on any thread and more than once.
//
// Callers that attach threads through the bridge should pin the goroutine
// with runtime.LockOSThread for the thread's lifetime and call ReleaseThread
// before unpinning, or use RunOnThread.
func ReleaseThread() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tid := platform.ThreadID()
	threadsMu.Lock()
	st := threads[tid]
	delete(threads, tid)
	threadsMu.Unlock()
	if st == nil {
		return
	}
	for i := len(st.teardown) - 1; i >= 0; i-- {
		st.teardown[i]()
	}
	if st.attached {
		detachThread(tid, st.vm)
	}
}

// AtThreadRelease registers fn to run when ReleaseThread is called on the
// calling OS thread. The goroutine must be pinned to its thread.
func AtThreadRelease(fn func()) {
	tid := platform.ThreadID()
	threadsMu.Lock()
	defer threadsMu.Unlock()
	st, ok := threads[tid]
	if !ok {
		st = &threadState{vm: currentVM()}
		threads[tid] = st
	}
	st.teardown = append(st.teardown, fn)
}

// RunOnThread runs fn on a dedicated OS thread and waits for it. When fn
// returns, the thread's teardown callbacks run and the thread exits. A panic
// in fn is returned as an error.
func RunOnThread(fn func() error) error {
	done := make(chan error, 1)
	go func() {
		// The goroutine never unlocks, so the runtime terminates the thread
		// when it exits.
		runtime.LockOSThread()
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("qjni: panic on dedicated thread: %v", r)
			}
			ReleaseThread()
			done <- err
		}()
		err = fn()
	}()
	return <-done
}

// IsThreadAttached reports whether the calling OS thread is attached to the
// registered VM. It never attaches and never fails.
func IsThreadAttached() bool {
	vm := JavaVM()
	if vm == nil {
		return false
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	_, st := vm.GetEnv(jni.Version1_6)
	return st == jni.OK
}
