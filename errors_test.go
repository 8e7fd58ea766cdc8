package qjni

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2gis/qtandroidextensions-sub000/jni"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "class and member",
			err:  newError(ErrMethodNotFound, "pkg/Foo", "bar", "CallInt", "signature %s", "()I"),
			want: "qjni: method not found: pkg/Foo.bar (CallInt): signature ()I",
		},
		{
			name: "class only",
			err:  newError(ErrClassNotFound, "pkg/Foo", "", "NewClass", ""),
			want: "qjni: class not found: pkg/Foo (NewClass)",
		},
		{
			name: "member only",
			err:  objectIsNull("", "get", "CallInt"),
			want: "qjni: object is null: get (CallInt)",
		},
		{
			name: "attach failure",
			err:  attachError(42, jni.NoMem, "NewThreadContext"),
			want: "qjni: thread attach failure (NewThreadContext): thread 42: JNI_ENOMEM",
		},
		{
			name: "bare kind",
			err:  ErrClassNotSet,
			want: "qjni: class not set",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorKinds(t *testing.T) {
	notInit := newError(ErrRuntimeNotInitialized, "", "", "CallInt", "")
	assert.ErrorIs(t, notInit, ErrRuntimeNotInitialized)
	assert.ErrorIs(t, notInit, ErrThreadAttach)
	assert.ErrorIs(t, notInit, ErrBridge)

	for _, k := range []error{ErrClassNotFound, ErrClassNotSet, ErrObjectIsNull, ErrMethodNotFound, ErrFieldNotFound, ErrJavaCall} {
		err := fmt.Errorf("wrapped: %w", newError(k, "pkg/Foo", "m", "site", ""))
		assert.ErrorIs(t, err, k)
		assert.ErrorIs(t, err, ErrBridge)
		assert.NotErrorIs(t, err, ErrThreadAttach)

		var e *Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, "pkg/Foo", e.Class)
		assert.Equal(t, "m", e.Member)
		assert.Equal(t, "site", e.CallSite)
	}
}

func TestIsJavaException(t *testing.T) {
	e := newError(ErrJavaCall, "pkg/Foo", "run", "CallVoid", "%s", "java.lang.IllegalStateException: boom")
	e.Exception = "java.lang.IllegalStateException: boom"

	text, ok := IsJavaException(fmt.Errorf("outer: %w", e))
	assert.True(t, ok)
	assert.Equal(t, "java.lang.IllegalStateException: boom", text)

	_, ok = IsJavaException(newError(ErrMethodNotFound, "pkg/Foo", "run", "CallVoid", ""))
	assert.False(t, ok)
	_, ok = IsJavaException(nil)
	assert.False(t, ok)
}
