package qjni

import (
	"github.com/2gis/qtandroidextensions-sub000/jni"
	"go.uber.org/zap"
)

// ScopedRef owns a local reference, typically a string or a call result.
// Local references are bound to the thread that created them, so a
// ScopedRef must be disposed on that thread. Dispose is idempotent.
//
//	s, err := qjni.ToJavaString("hello")
//	if err != nil {
//		return err
//	}
//	defer s.Dispose()
type ScopedRef struct {
	env jni.Env
	ref jni.Ref
}

// NewScopedRef takes ownership of the local reference ref. env may be nil,
// in which case the calling thread's context is looked up on Dispose.
func NewScopedRef(env jni.Env, ref jni.Ref) *ScopedRef {
	return &ScopedRef{env: env, ref: ref}
}

// Ref returns the held reference without giving up ownership.
func (s *ScopedRef) Ref() jni.Ref {
	if s == nil {
		return 0
	}
	return s.ref
}

// IsNull reports whether no reference is held.
func (s *ScopedRef) IsNull() bool { return s.Ref() == 0 }

func (s *ScopedRef) context() jni.Env {
	if s.env != nil {
		return s.env
	}
	vm := JavaVM()
	if vm == nil {
		return nil
	}
	env, st := vm.GetEnv(jni.Version1_6)
	if st != jni.OK {
		return nil
	}
	s.env = env
	return env
}

// Dispose deletes the held reference. Calling it again does nothing.
func (s *ScopedRef) Dispose() {
	if s == nil || s.ref == 0 {
		return
	}
	env := s.context()
	if env == nil {
		log().Warn("leaking local reference, thread has no context")
		s.ref = 0
		return
	}
	env.DeleteLocalRef(s.ref)
	s.ref = 0
}

// Clone returns a ScopedRef holding a new local reference to the same
// object.
func (s *ScopedRef) Clone() *ScopedRef {
	if s.IsNull() {
		return &ScopedRef{env: s.env}
	}
	env := s.context()
	if env == nil {
		return &ScopedRef{}
	}
	return &ScopedRef{env: env, ref: env.NewLocalRef(s.ref)}
}

// Move transfers ownership to a new ScopedRef and leaves s empty.
func (s *ScopedRef) Move() *ScopedRef {
	m := &ScopedRef{env: s.env, ref: s.ref}
	s.ref = 0
	return m
}

// Detach gives up ownership and returns the reference; the caller becomes
// responsible for deleting it.
func (s *ScopedRef) Detach() jni.Ref {
	r := s.ref
	s.ref = 0
	return r
}

// String converts the held java/lang/String to a Go string. Conversion is
// best effort: null, foreign objects and exceptions yield "".
func (s *ScopedRef) String() string {
	if s.IsNull() {
		return ""
	}
	env := s.context()
	if env == nil {
		return ""
	}
	strCls := env.FindClass("java/lang/String")
	if strCls == 0 {
		swallowException(env, "ScopedRef.String")
		return ""
	}
	defer env.DeleteLocalRef(strCls)
	if !env.IsInstanceOf(s.ref, strCls) {
		log().Warn("scoped reference is not a string", zap.Uintptr("ref", uintptr(s.ref)))
		return ""
	}
	return GoString(env, s.ref)
}
