package qjni

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/2gis/qtandroidextensions-sub000/jni"
)

type peer struct {
	name  string
	pings int
}

// attachPinned attaches the pinned test thread so the runtime can call
// natives on it.
func attachPinned(t *testing.T) jni.Env {
	t.Helper()
	pin(t)
	tc, err := NewThreadContext()
	require.NoError(t, err)
	tc.Release()
	t.Cleanup(ReleaseThread)
	return tc.Env()
}

func TestNativePing(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	c := newCounterClass(t)
	obj := newCounter(t, 0)

	p := &peer{name: "first"}
	h := NewNativeHandle(p)
	defer ReleaseNativeHandle(h)
	require.NoError(t, obj.SetFieldLong("nativePtr", h))

	ok, err := c.RegisterNativeMethods([]NativeMethod{{
		Name:      "ping",
		Signature: "()V",
		Func: func(env jni.Env, this jni.Ref) {
			v, err := NativeHandleField(env, this, "nativePtr")
			if err != nil {
				panic(err)
			}
			v.(*peer).pings++
		},
	}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, vm.IsRegistered(counterClass, "ping", "()V"))

	attachPinned(t)
	for i := 0; i < 2; i++ {
		_, err := vm.CallNative(counterClass, "ping", "()V", obj.Ref())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, p.pings)
	assertClean(t, vm)
}

func TestNativeErrorsBecomeExceptions(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	c := newCounterClass(t)
	core, logs := observer.New(zap.WarnLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	ok, err := c.RegisterNativeMethods([]NativeMethod{
		{
			Name:      "describe",
			Signature: "(J)Ljava/lang/String;",
			Func: func(env jni.Env, this jni.Ref, h int64) (jni.Ref, error) {
				v, ok := LookupNativeHandle(h)
				if !ok {
					return 0, fmt.Errorf("unknown handle %d", h)
				}
				s, err := NewString(v.(*peer).name)
				if err != nil {
					return 0, err
				}
				return s.DetachLocal(env), nil
			},
		},
		{
			Name:      "sum",
			Signature: "(II)I",
			Func: func(env jni.Env, cls jni.Ref, a, b int32) (int32, error) {
				if a < 0 {
					panic("negative operand")
				}
				return a + b, nil
			},
		},
	})
	require.NoError(t, err)
	require.True(t, ok)

	env := attachPinned(t)
	obj := newCounter(t, 0)
	h := NewNativeHandle(&peer{name: "named peer"})
	defer ReleaseNativeHandle(h)

	v, err := vm.CallNative(counterClass, "describe", "(J)Ljava/lang/String;", obj.Ref(), jni.LongValue(h))
	require.NoError(t, err)
	assert.Equal(t, "named peer", takeString(env, v.Ref()))

	_, err = vm.CallNative(counterClass, "describe", "(J)Ljava/lang/String;", obj.Ref(), jni.LongValue(-1))
	require.Error(t, err)
	assert.Equal(t, "java.lang.RuntimeException: unknown handle -1", err.Error())

	v, err = vm.CallNative(counterClass, "sum", "(II)I", 0, jni.IntValue(2), jni.IntValue(3))
	require.NoError(t, err)
	assert.Equal(t, int32(5), v.Int())

	_, err = vm.CallNative(counterClass, "sum", "(II)I", 0, jni.IntValue(-1), jni.IntValue(3))
	require.Error(t, err)
	assert.Equal(t, "java.lang.RuntimeException: panic: negative operand", err.Error())

	assert.Equal(t, 2, logs.FilterMessage("native method failed").Len())
	assertClean(t, vm)
}

func TestNativePanicBecomesException(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	c := newCounterClass(t)
	core, logs := observer.New(zap.WarnLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	calls := 0
	ok, err := c.RegisterNativeMethods([]NativeMethod{{
		Name:      "ping",
		Signature: "()V",
		Func: func(env jni.Env, this jni.Ref) {
			calls++
			panic("ping exploded")
		},
	}})
	require.NoError(t, err)
	require.True(t, ok)

	attachPinned(t)
	obj := newCounter(t, 0)

	_, err = vm.CallNative(counterClass, "ping", "()V", obj.Ref())
	require.Error(t, err)
	assert.Equal(t, "java.lang.RuntimeException: panic: ping exploded", err.Error())
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, logs.FilterMessage("native method failed").Len())

	// The thread stays usable after the exception was delivered.
	n, err := obj.CallInt("get")
	require.NoError(t, err)
	assert.Zero(t, n)
	assertClean(t, vm)
}

func TestRegisterNativeFailures(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	c := newCounterClass(t)

	bad := []NativeMethod{
		{Name: "ping", Signature: "()V", Func: "not a func"},
		{Name: "ping", Signature: "()V", Func: func(int32) {}},
		{Name: "ping", Signature: "()V", Func: func(jni.Env, jni.Ref) (int32, int64) { return 0, 0 }},
	}
	for _, m := range bad {
		ok, err := c.RegisterNativeMethods([]NativeMethod{m})
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrBridge)
	}

	// get is not declared native.
	ok, err := c.RegisterNativeMethods([]NativeMethod{{
		Name:      "get",
		Signature: "()I",
		Func:      func(jni.Env, jni.Ref) int32 { return 0 },
	}})
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrJavaCall)

	_, err = (*Class)(nil).RegisterNativeMethods(nil)
	assert.ErrorIs(t, err, ErrClassNotSet)
	assertClean(t, vm)
}

func TestUnregisterNatives(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	c := newCounterClass(t)

	ok, err := c.RegisterNativeMethods([]NativeMethod{{
		Name:      "ping",
		Signature: "()V",
		Func:      func(jni.Env, jni.Ref) error { return errors.New("unused") },
	}})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.UnregisterNativeMethods()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, vm.IsRegistered(counterClass, "ping", "()V"))
}

func TestNativeHandles(t *testing.T) {
	h := NewNativeHandle("value")
	assert.NotZero(t, h)
	v, ok := LookupNativeHandle(h)
	assert.True(t, ok)
	assert.Equal(t, "value", v)
	assert.True(t, ReleaseNativeHandle(h))
	assert.False(t, ReleaseNativeHandle(h))
	_, ok = LookupNativeHandle(h)
	assert.False(t, ok)
	_, ok = LookupNativeHandle(0)
	assert.False(t, ok)
}

func TestNativeHandleField(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	obj := newCounter(t, 0)
	env := attachPinned(t)

	_, err := NativeHandleField(env, 0, "nativePtr")
	assert.ErrorIs(t, err, ErrObjectIsNull)
	_, err = NativeHandleField(env, obj.Ref(), "value")
	assert.ErrorIs(t, err, ErrFieldNotFound)
	_, err = NativeHandleField(env, obj.Ref(), "nativePtr")
	assert.ErrorIs(t, err, ErrBridge)

	assertClean(t, vm)
}
