package jnitest

import (
	"runtime"
	"testing"
	"unicode/utf16"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// attach pins the test goroutine to its OS thread and attaches it.
func attach(t *testing.T, vm *VM) *Env {
	t.Helper()
	runtime.LockOSThread()
	env, st := vm.AttachCurrentThread()
	require.Equal(t, jni.OK, st)
	t.Cleanup(func() {
		vm.DetachCurrentThread()
		runtime.UnlockOSThread()
	})
	return env.(*Env)
}

func TestAttachDetach(t *testing.T) {
	vm := NewVM()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	_, st := vm.GetEnv(jni.Version1_6)
	assert.Equal(t, jni.Detached, st)

	env, st := vm.AttachCurrentThread()
	require.Equal(t, jni.OK, st)
	again, st := vm.AttachCurrentThread()
	require.Equal(t, jni.OK, st)
	assert.Same(t, env, again)
	assert.Equal(t, 1, vm.Attaches())
	assert.True(t, vm.IsAttached())

	_, st = vm.GetEnv(jni.Version1_8 + 1)
	assert.Equal(t, jni.BadVer, st)

	assert.Equal(t, jni.OK, vm.DetachCurrentThread())
	assert.Equal(t, jni.Detached, vm.DetachCurrentThread())
	assert.Equal(t, 1, vm.Detaches())
	assert.False(t, vm.IsAttached())
}

func TestFailAttach(t *testing.T) {
	vm := NewVM()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	vm.FailAttach(jni.NoMem)
	_, st := vm.AttachCurrentThread()
	assert.Equal(t, jni.NoMem, st)
	assert.Zero(t, vm.Attaches())
}

func TestFindClass(t *testing.T) {
	vm := NewVM()
	env := attach(t, vm)

	cls := env.FindClass("java/lang/String")
	require.NotZero(t, cls)
	assert.Equal(t, 1, vm.FindClassCalls("java/lang/String"))

	assert.Zero(t, env.FindClass("pkg/Missing"))
	require.True(t, env.ExceptionCheck())
	exc := vm.Object(env.ExceptionOccurred())
	env.ExceptionClear()
	assert.Equal(t, "java/lang/NoClassDefFoundError", exc.ClassName())
	assert.Equal(t, "pkg/Missing", exc.Message)
	assert.Empty(t, vm.Violations())
}

func TestFindClassFilterFallsBackToLoader(t *testing.T) {
	vm := NewVM()
	vm.DefineClass("app/Thing", "")
	vm.SetFindClassFilter(func(name string) bool { return name != "app/Thing" })
	env := attach(t, vm)

	assert.Zero(t, env.FindClass("app/Thing"))
	env.ExceptionClear()

	loaderCls := env.FindClass("java/lang/ClassLoader")
	loadClass := env.GetMethodID(loaderCls, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;")
	require.NotZero(t, loadClass)
	loader := env.NewObjectA(loaderCls, env.GetMethodID(env.FindClass("java/lang/Object"), "<init>", "()V"), nil)
	require.NotZero(t, loader)

	name := env.NewString(utf16.Encode([]rune("app.Thing")))
	got := env.CallMethodA(loader, loadClass, jni.Object, []jni.Value{jni.RefValue(name)}).Ref()
	require.False(t, env.ExceptionCheck())
	assert.Equal(t, "java/lang/Class", vm.Object(got).ClassName())
	assert.Empty(t, vm.Violations())
}

func TestStringsAndRefs(t *testing.T) {
	vm := NewVM()
	env := attach(t, vm)

	chars := utf16.Encode([]rune("héllo, 世界 🙂"))
	s := env.NewString(chars)
	assert.Equal(t, chars, env.GetStringChars(s))
	assert.Equal(t, "héllo, 世界 🙂", vm.Object(s).String())

	g := env.NewGlobalRef(s)
	assert.True(t, vm.RefIsGlobal(g))
	assert.True(t, env.IsSameObject(s, g))
	assert.Equal(t, 1, vm.LiveGlobalRefs())
	env.DeleteGlobalRef(g)
	env.DeleteGlobalRef(g)
	assert.Zero(t, vm.LiveGlobalRefs())
	assert.Len(t, vm.Violations(), 1)
}

func TestLocalFrames(t *testing.T) {
	vm := NewVM()
	env := attach(t, vm)
	before := vm.LiveLocalRefs()

	require.Equal(t, jni.OK, env.PushLocalFrame(4))
	a := env.NewString(nil)
	env.NewString(nil)
	kept := env.PopLocalFrame(a)
	assert.NotZero(t, kept)
	assert.Equal(t, before+1, vm.LiveLocalRefs())
}

func TestMethodsFieldsAndExceptions(t *testing.T) {
	vm := NewVM()
	vm.DefineClass("pkg/Counter", "").
		Field("count", "I").
		StaticField("created", "I", jni.IntValue(0)).
		Constructor("(I)V", func(c *Call) jni.Value {
			c.SetField("count", c.Arg(0))
			return 0
		}).
		Method("add", "(I)I", func(c *Call) jni.Value {
			n := c.Field("count").Int() + c.Arg(0).Int()
			c.SetField("count", jni.IntValue(n))
			return jni.IntValue(n)
		}).
		Method("fail", "()V", func(c *Call) jni.Value {
			c.Throw("java/lang/IllegalStateException", "boom")
			return 0
		})
	env := attach(t, vm)

	cls := env.FindClass("pkg/Counter")
	ctor := env.GetMethodID(cls, "<init>", "(I)V")
	obj := env.NewObjectA(cls, ctor, []jni.Value{jni.IntValue(40)})
	require.NotZero(t, obj)

	add := env.GetMethodID(cls, "add", "(I)I")
	assert.Equal(t, int32(42), env.CallMethodA(obj, add, jni.Int, []jni.Value{jni.IntValue(2)}).Int())

	count := env.GetFieldID(cls, "count", "I")
	env.SetField(obj, count, jni.Int, jni.IntValue(7))
	assert.Equal(t, int32(7), env.GetField(obj, count, jni.Int).Int())

	created := env.GetStaticFieldID(cls, "created", "I")
	env.SetStaticField(cls, created, jni.Int, jni.IntValue(3))
	assert.Equal(t, int32(3), env.GetStaticField(cls, created, jni.Int).Int())

	assert.Zero(t, env.GetMethodID(cls, "nope", "()V"))
	require.True(t, env.ExceptionCheck())
	env.ExceptionClear()

	fail := env.GetMethodID(cls, "fail", "()V")
	env.CallMethodA(obj, fail, jni.Void, nil)
	require.True(t, env.ExceptionCheck())
	env.FindClass("java/lang/Object")
	env.ExceptionDescribe()
	assert.Equal(t, []string{"java.lang.IllegalStateException: boom"}, vm.Described())
	require.Len(t, vm.Violations(), 1)
	assert.Contains(t, vm.Violations()[0], "FindClass called with pending")
}

func TestPrimitiveArrays(t *testing.T) {
	vm := NewVM()
	env := attach(t, vm)

	arr := env.NewPrimitiveArray(jni.Int, 3)
	require.Equal(t, 3, env.GetArrayLength(arr))
	src := []int32{1, -2, 3}
	env.SetArrayRegion(arr, jni.Int, 0, 3, unsafe.Pointer(&src[0]))

	p := env.GetArrayElements(arr, jni.Int)
	got := unsafe.Slice((*int32)(p), 3)
	assert.Equal(t, src, append([]int32(nil), got...))
	got[0] = 100
	env.ReleaseArrayElements(arr, jni.Int, p, jni.Abort)
	assert.Equal(t, 1, vm.ArrayReleases(jni.Abort))

	p = env.GetArrayElements(arr, jni.Int)
	assert.Equal(t, int32(1), *(*int32)(p))
	env.ReleaseArrayElements(arr, jni.Int, p, jni.Abort)
	assert.Zero(t, env.GetObjectClass(arr))
	assert.Empty(t, vm.Violations())
}

func TestRegisterNatives(t *testing.T) {
	vm := NewVM()
	vm.DefineClass("pkg/Peer", "").
		NativeMethod("ping", "()V", false).
		NativeMethod("sum", "(IJ)J", true)
	env := attach(t, vm)
	cls := env.FindClass("pkg/Peer")

	pinged := 0
	st := env.RegisterNatives(cls, []jni.NativeMethod{
		{Name: "ping", Signature: "()V", Func: func(jni.Env, jni.Ref) { pinged++ }},
		{Name: "sum", Signature: "(IJ)J", Func: func(_ jni.Env, _ jni.Ref, a int32, b int64) int64 { return int64(a) + b }},
	})
	require.Equal(t, jni.OK, st)
	assert.True(t, vm.IsRegistered("pkg/Peer", "ping", "()V"))

	_, err := vm.CallNative("pkg/Peer", "ping", "()V", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, pinged)

	v, err := vm.CallNative("pkg/Peer", "sum", "(IJ)J", 0, jni.IntValue(2), jni.LongValue(40))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Long())

	st = env.RegisterNatives(cls, []jni.NativeMethod{{Name: "missing", Signature: "()V", Func: func(jni.Env, jni.Ref) {}}})
	assert.Equal(t, jni.ErrStatus, st)
	env.ExceptionClear()

	assert.Equal(t, jni.OK, env.UnregisterNatives(cls))
	assert.False(t, vm.IsRegistered("pkg/Peer", "ping", "()V"))
}
