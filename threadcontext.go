package qjni

import (
	"runtime"

	"github.com/2gis/qtandroidextensions-sub000/internal/platform"
	"github.com/2gis/qtandroidextensions-sub000/jni"
	"go.uber.org/zap"
)

// ThreadContext holds the execution context of the calling OS thread. The
// goroutine that created it stays pinned to its OS thread until Release.
// A ThreadContext must not be shared between goroutines.
type ThreadContext struct {
	env    jni.Env
	vm     jni.VM
	pinned bool
}

// NewThreadContext returns the execution context of the calling thread,
// attaching the thread to the registered VM if needed. Threads attached here
// are detached by ReleaseThread.
func NewThreadContext() (*ThreadContext, error) {
	return acquire("NewThreadContext")
}

// WithEnv wraps an execution context the caller already has, such as the
// env passed to a native method. The thread is not pinned or attached.
func WithEnv(env jni.Env) *ThreadContext {
	return &ThreadContext{env: env, vm: env.VM()}
}

func acquire(site string) (*ThreadContext, error) {
	vm := JavaVM()
	if vm == nil {
		return nil, newError(ErrRuntimeNotInitialized, "", "", site, "no Java VM registered")
	}
	runtime.LockOSThread()
	tid := platform.ThreadID()

	env, st := vm.GetEnv(jni.Version1_6)
	switch st {
	case jni.OK:
		noteThread(tid, vm, false)
	case jni.Detached:
		env, st = vm.AttachCurrentThread()
		if st != jni.OK || env == nil {
			runtime.UnlockOSThread()
			log().Error("attach failed", zap.Int64("tid", tid), zap.Stringer("status", st))
			return nil, attachError(tid, st, site)
		}
		noteThread(tid, vm, true)
		log().Debug("thread attached", zap.Int64("tid", tid))
	default:
		runtime.UnlockOSThread()
		return nil, attachError(tid, st, site)
	}
	drainOrphans(vm, env)
	return &ThreadContext{env: env, vm: vm, pinned: true}, nil
}

// Env returns the execution context.
func (tc *ThreadContext) Env() jni.Env { return tc.env }

// JavaVM returns the VM the context belongs to.
func (tc *ThreadContext) JavaVM() jni.VM { return tc.vm }

// Release unpins the goroutine. It does not detach the thread. Release is
// idempotent.
func (tc *ThreadContext) Release() {
	if tc.pinned {
		tc.pinned = false
		runtime.UnlockOSThread()
	}
}

// WithLocalFrame runs fn inside a new local reference frame of at least
// capacity references. Local references created by fn are freed when it
// returns.
func (tc *ThreadContext) WithLocalFrame(capacity int, fn func(env jni.Env) error) error {
	if st := tc.env.PushLocalFrame(int32(capacity)); st != jni.OK {
		CheckAndClear(tc.env, false)
		return newError(ErrBridge, "", "", "WithLocalFrame", "PushLocalFrame(%d): %s", capacity, st)
	}
	defer tc.env.PopLocalFrame(0)
	return fn(tc.env)
}

// withEnv runs fn with the calling thread's context.
func withEnv(site string, fn func(env jni.Env) error) error {
	tc, err := acquire(site)
	if err != nil {
		return err
	}
	defer tc.Release()
	return fn(tc.env)
}
