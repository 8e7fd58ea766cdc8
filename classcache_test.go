package qjni

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPreloadIsIdempotent(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	cache := DefaultClassCache()

	require.NoError(t, cache.Preload(counterClass))
	globals := vm.LiveGlobalRefs()
	require.NoError(t, cache.Preload(counterClass))
	require.NoError(t, cache.Preload("L"+counterClass+";"))

	assert.True(t, cache.IsPreloaded(counterClass))
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, globals, vm.LiveGlobalRefs())
	assert.Equal(t, 1, vm.FindClassCalls(counterClass))

	for i := 0; i < 5; i++ {
		c, err := NewClass(counterClass)
		require.NoError(t, err)
		require.NoError(t, c.Close())
	}
	ref, ok := cache.Resolve(counterClass)
	assert.True(t, ok)
	assert.True(t, vm.RefIsGlobal(ref))
	assert.Equal(t, 1, vm.FindClassCalls(counterClass))
	assertClean(t, vm)
}

func TestDescriptorNames(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	cache := DefaultClassCache()
	desc := "L" + counterClass + ";"

	require.NoError(t, cache.Preload(desc))
	assert.True(t, cache.IsPreloaded(desc))
	assert.True(t, cache.IsPreloaded(counterClass))

	// A cached class resolves from a fresh thread without attaching it.
	attaches := vm.Attaches()
	require.NoError(t, RunOnThread(func() error {
		ref, ok := cache.Resolve(desc)
		assert.True(t, ok)
		assert.True(t, vm.RefIsGlobal(ref))
		return nil
	}))
	assert.Equal(t, attaches, vm.Attaches())
	assert.Equal(t, 1, vm.FindClassCalls(counterClass))
	assertClean(t, vm)
}

func TestInsertRaceReleasesLoser(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	pin(t)
	tc, err := NewThreadContext()
	require.NoError(t, err)
	defer tc.Release()
	env := tc.Env()

	cache := NewClassCache()
	local := env.FindClass(counterClass)
	require.NotZero(t, local)
	winner := env.NewGlobalRef(local)
	loser := env.NewGlobalRef(local)
	env.DeleteLocalRef(local)
	live := vm.LiveGlobalRefs()

	assert.Equal(t, winner, cache.insert(env, counterClass, winner))
	assert.Equal(t, winner, cache.insert(env, counterClass, loser))
	assert.Equal(t, live-1, vm.LiveGlobalRefs())
	assert.True(t, vm.RefIsGlobal(winner))
	assert.False(t, vm.RefIsGlobal(loser))
	assert.Equal(t, 1, cache.Len())

	ref, ok := cache.Resolve(counterClass)
	assert.True(t, ok)
	assert.Equal(t, winner, ref)

	require.NoError(t, cache.EvictAll())
	assert.Equal(t, live-2, vm.LiveGlobalRefs())
	assertClean(t, vm)
}

func TestMissingClass(t *testing.T) {
	vm := newTestVM(t)
	cache := DefaultClassCache()

	_, ok := cache.Resolve("pkg/Foo")
	assert.False(t, ok)
	assert.False(t, cache.IsPreloaded("pkg/Foo"))

	_, err := NewObject("pkg/Foo", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClassNotFound)
	assert.Contains(t, err.Error(), "pkg/Foo")

	err = cache.Preload("pkg/Foo")
	assert.ErrorIs(t, err, ErrClassNotFound)

	// Misses are not cached and leave no exception behind.
	assert.Equal(t, 3, vm.FindClassCalls("pkg/Foo"))
	c, err := NewClass("java/lang/String")
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assertClean(t, vm)
}

func TestPreloadAll(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	core, logs := observer.New(zap.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	err := PreloadClasses(counterClass, "pkg/Missing", "java/lang/String", "pkg/Other")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClassNotFound)
	assert.Contains(t, err.Error(), "pkg/Missing")
	assert.Contains(t, err.Error(), "pkg/Other")

	cache := DefaultClassCache()
	assert.True(t, cache.IsPreloaded(counterClass))
	assert.True(t, cache.IsPreloaded("java/lang/String"))
	assert.Equal(t, 2, cache.Len())

	entries := logs.FilterMessage("classes preloaded").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 2, fields["loaded"])
	assert.EqualValues(t, 2, fields["failed"])
	assert.Equal(t, "qjni", entries[0].LoggerName)
}

func TestClassLoaderFallback(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	vm.SetFindClassFilter(func(name string) bool { return strings.HasPrefix(name, "java/") })

	_, ok := DefaultClassCache().Resolve(counterClass)
	require.False(t, ok)

	loader, err := NewObject("java/lang/ClassLoader", "")
	require.NoError(t, err)
	defer loader.Close()
	require.NoError(t, DefaultClassCache().SetClassLoader(loader))

	obj, err := NewObject(counterClass, "I", 7)
	require.NoError(t, err)
	defer obj.Close()
	got, err := obj.CallInt("get")
	require.NoError(t, err)
	assert.Equal(t, int32(7), got)

	// Arrays are never loaded through the class loader.
	_, ok = DefaultClassCache().Resolve("[Lorg/qjni/Counter;")
	assert.False(t, ok)

	require.NoError(t, DefaultClassCache().SetClassLoader(nil))
	_, err = NewObject("org/qjni/Other", "")
	assert.ErrorIs(t, err, ErrClassNotFound)
	assertClean(t, vm)
}

func TestConcurrentResolve(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	cache := DefaultClassCache()

	const workers = 16
	refs := make([]uintptr, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, ok := cache.Resolve(counterClass)
			if ok {
				refs[i] = uintptr(r)
			}
		}(i)
	}
	wg.Wait()

	for _, r := range refs {
		assert.Equal(t, refs[0], r)
		assert.NotZero(t, r)
	}
	assert.Equal(t, 1, vm.FindClassCalls(counterClass))
	assert.Equal(t, 1, cache.Len())
	assertClean(t, vm)
}

func TestEvictAll(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	cache := NewClassCache()
	before := vm.LiveGlobalRefs()

	require.NoError(t, cache.PreloadAll(counterClass, "java/lang/String"))
	assert.Equal(t, before+2, vm.LiveGlobalRefs())

	require.NoError(t, cache.EvictAll())
	assert.Zero(t, cache.Len())
	assert.Equal(t, before, vm.LiveGlobalRefs())
	require.NoError(t, cache.EvictAll())

	SetJavaVM(nil)
	assert.ErrorIs(t, cache.Preload("java/lang/String"), ErrRuntimeNotInitialized)
}
