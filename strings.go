package qjni

import (
	"unicode/utf16"

	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// newJString creates a local java/lang/String. Strings are exchanged as
// UTF-16, so supplementary characters survive the round trip.
func newJString(env jni.Env, s string) jni.Ref {
	return env.NewString(utf16.Encode([]rune(s)))
}

// GoString converts a java/lang/String reference to a Go string. A null
// reference yields "".
func GoString(env jni.Env, str jni.Ref) string {
	if str == 0 {
		return ""
	}
	chars := env.GetStringChars(str)
	if swallowException(env, "GoString") {
		return ""
	}
	return string(utf16.Decode(chars))
}

// takeString converts and then deletes a local string reference.
func takeString(env jni.Env, str jni.Ref) string {
	if str == 0 {
		return ""
	}
	defer env.DeleteLocalRef(str)
	return GoString(env, str)
}

// ToJavaString converts s to a managed string owned by a ScopedRef. The
// goroutine must stay on the calling OS thread until the ScopedRef is
// disposed.
func ToJavaString(s string) (*ScopedRef, error) {
	tc, err := acquire("ToJavaString")
	if err != nil {
		return nil, err
	}
	defer tc.Release()
	env := tc.Env()
	r := newJString(env, s)
	if swallowException(env, "ToJavaString") || r == 0 {
		return NewScopedRef(env, 0), nil
	}
	return NewScopedRef(env, r), nil
}

// NewString creates a managed string and returns a handle owning it.
func NewString(s string) (*Object, error) {
	var obj *Object
	err := withEnv("NewString", func(env jni.Env) error {
		r := newJString(env, s)
		if err := javaCallError(env, "java/lang/String", "<init>", "NewString"); err != nil {
			return err
		}
		obj = wrapObject(env, r, true, "java/lang/String")
		return nil
	})
	return obj, err
}
