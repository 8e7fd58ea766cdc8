package qjni

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2gis/qtandroidextensions-sub000/jni"
	"github.com/2gis/qtandroidextensions-sub000/jnitest"
)

func newCounterClass(t *testing.T) *Class {
	t.Helper()
	c, err := NewClass(counterClass)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestStaticCalls(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	c := newCounterClass(t)
	assert.Equal(t, counterClass, c.Name())

	v, err := c.CallStaticParamLong("twice", "J", int64(21))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	s, err := c.CallStaticParamString("greet", "Ljava/lang/String;", "wörld")
	require.NoError(t, err)
	assert.Equal(t, "hello, wörld", s)

	obj, err := c.CallStaticParamObj("create", counterClass, "I", 5)
	require.NoError(t, err)
	defer obj.Close()
	n, err := obj.CallInt("get")
	require.NoError(t, err)
	assert.Equal(t, int32(5), n)
	assert.Equal(t, counterClass, obj.Name())

	raw, res, err := c.CallStaticSig("twice", "(J)J", int64(4))
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, int64(8), raw.Long())

	raw, res, err = c.CallStaticSig("greet", "(Ljava/lang/String;)Ljava/lang/String;", "sig")
	require.NoError(t, err)
	require.NotNil(t, res)
	defer res.Close()
	assert.Zero(t, raw)
	str, err := res.ToString()
	require.NoError(t, err)
	assert.Equal(t, "hello, sig", str)
	assertClean(t, vm)
}

func TestStaticFields(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	c := newCounterClass(t)

	n, err := c.GetStaticFieldInt("instances")
	require.NoError(t, err)
	assert.Equal(t, int32(3), n)
	require.NoError(t, c.SetStaticFieldInt("instances", 4))
	n, err = c.GetStaticFieldInt("instances")
	require.NoError(t, err)
	assert.Equal(t, int32(4), n)

	f, err := c.GetStaticFieldFloat("scale")
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f)

	raw, err := c.GetStaticField("instances", "I")
	require.NoError(t, err)
	assert.Equal(t, int32(4), raw.Int())
	_, err = c.GetStaticField("name", "Ljava/lang/String;")
	assert.ErrorIs(t, err, ErrBridge)

	s, err := c.GetStaticFieldString("name")
	require.NoError(t, err)
	assert.Empty(t, s)
	require.NoError(t, c.SetStaticFieldString("name", "counter"))
	s, err = c.GetStaticFieldString("name")
	require.NoError(t, err)
	assert.Equal(t, "counter", s)

	_, err = c.GetStaticFieldInt("missing")
	assert.ErrorIs(t, err, ErrFieldNotFound)
	_, err = c.GetStaticFieldLong("instances")
	assert.ErrorIs(t, err, ErrFieldNotFound)
	assertClean(t, vm)
}

func TestStaticCallFailures(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	c := newCounterClass(t)

	_, err := c.CallStaticInt("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMethodNotFound)
	assert.Contains(t, err.Error(), counterClass+".missing")
	assert.Contains(t, err.Error(), "CallStaticParamInt")

	_, err = c.CallStaticInt("explode")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJavaCall)
	text, ok := IsJavaException(err)
	assert.True(t, ok)
	assert.Equal(t, "java.lang.IllegalStateException: static boom", text)

	_, _, err = c.CallStaticSig("twice", "(J")
	assert.ErrorIs(t, err, ErrBridge)

	// The thread stays usable after every failure.
	v, err := c.CallStaticParamLong("twice", "J", int64(1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	assertClean(t, vm)
}

func TestNullClass(t *testing.T) {
	vm := newTestVM(t)
	var c *Class

	assert.True(t, c.IsClassNull())
	_, err := c.CallStaticInt("anything")
	assert.ErrorIs(t, err, ErrClassNotSet)
	_, err = (&Class{}).GetStaticFieldInt("anything")
	assert.ErrorIs(t, err, ErrClassNotSet)
	_, err = NewObjectOf(nil, "")
	assert.ErrorIs(t, err, ErrClassNotSet)
	assert.NoError(t, c.Close())
	assert.Zero(t, vm.Attaches())
}

func TestClassOwnership(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	require.NoError(t, DefaultClassCache().Preload(counterClass))
	before := vm.LiveGlobalRefs()

	c, err := NewClass(counterClass)
	require.NoError(t, err)
	clone, err := c.Clone()
	require.NoError(t, err)
	assert.NotEqual(t, c.ClassRef(), clone.ClassRef())
	assert.Equal(t, before+2, vm.LiveGlobalRefs())

	moved := c.Move()
	assert.True(t, c.IsClassNull())
	assert.Equal(t, counterClass, moved.Name())
	assert.Equal(t, before+2, vm.LiveGlobalRefs())

	require.NoError(t, c.Close())
	require.NoError(t, moved.Close())
	require.NoError(t, moved.Close())
	require.NoError(t, clone.Close())
	assert.Equal(t, before, vm.LiveGlobalRefs())
	assertClean(t, vm)
}

func TestIsCastableTo(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	vm.DefineClass("org/qjni/SubCounter", counterClass)

	sub, err := NewClass("org/qjni/SubCounter")
	require.NoError(t, err)
	defer sub.Close()
	base := newCounterClass(t)

	ok, err := sub.IsCastableTo(base)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = base.IsCastableTo(sub)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = base.IsCastableTo(nil)
	assert.ErrorIs(t, err, ErrClassNotSet)

	// Inherited statics resolve through the subclass.
	v, err := sub.CallStaticParamLong("twice", "J", int64(3))
	require.NoError(t, err)
	assert.Equal(t, int64(6), v)
	assertClean(t, vm)
}

func TestWrapClass(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	pin(t)
	tc, err := NewThreadContext()
	require.NoError(t, err)
	defer ReleaseThread()
	defer tc.Release()

	env := tc.Env()
	local := env.FindClass(counterClass)
	require.NotZero(t, local)
	c := WrapClass(env, local)
	env.DeleteLocalRef(local)
	assert.Equal(t, counterClass, c.Name())
	assert.True(t, vm.RefIsGlobal(c.ClassRef()))
	require.NoError(t, c.Close())

	null := WrapClass(env, jni.Ref(0))
	assert.True(t, null.IsClassNull())
	assertClean(t, vm)
}

func TestFinalizedHandlesReleasedOnNextAcquire(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	pin(t)

	obj := newCounter(t, 1)
	live := vm.LiveGlobalRefs()

	// Stands in for the GC: references are queued, not deleted.
	obj.finalize()
	assert.True(t, obj.IsNull())
	assert.Equal(t, live, vm.LiveGlobalRefs())

	// References queued for a VM that is gone are dropped.
	releaseLater(jnitest.NewVM(), jni.Ref(12345))

	tc, err := NewThreadContext()
	require.NoError(t, err)
	tc.Release()
	assert.Equal(t, live-2, vm.LiveGlobalRefs())
	assert.NoError(t, obj.Close())
	assertClean(t, vm)
}
