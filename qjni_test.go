package qjni

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/2gis/qtandroidextensions-sub000/jni"
	"github.com/2gis/qtandroidextensions-sub000/jnitest"
	"github.com/2gis/qtandroidextensions-sub000/jvm"
)

// stubStartup replaces VM detection and creation for the duration of the
// test.
func stubStartup(t *testing.T, detected, created jni.VM) (detects, creates *[]string, opts *jvm.Options) {
	t.Helper()
	detects, creates, opts = new([]string), new([]string), new(jvm.Options)
	savedDetect, savedCreate := detectVM, createVM
	detectVM = func(lib string) (jni.VM, error) {
		*detects = append(*detects, lib)
		if detected == nil {
			return nil, jvm.ErrNoVM
		}
		return detected, nil
	}
	createVM = func(o jvm.Options) (jni.VM, error) {
		*creates = append(*creates, o.LibraryPath)
		*opts = o
		if created == nil {
			return nil, errors.New("JNI_CreateJavaVM failed: JNI_ERR")
		}
		return created, nil
	}
	t.Cleanup(func() {
		detectVM, createVM = savedDetect, savedCreate
		assert.NoError(t, DefaultClassCache().EvictAll())
		SetJavaVM(nil)
		resetDetection("")
	})
	return detects, creates, opts
}

func TestInitDetects(t *testing.T) {
	vm := jnitest.NewVM()
	defineCounter(vm)
	detects, creates, _ := stubStartup(t, vm, nil)
	core, logs := observer.New(zap.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	err := Init(Config{
		LibraryPath: "/opt/jdk/libjvm.so",
		AutoDetect:  true,
		Preload:     []string{counterClass, "java/lang/String"},
	})
	require.NoError(t, err)
	assert.Equal(t, jni.VM(vm), JavaVM())
	assert.Equal(t, []string{"/opt/jdk/libjvm.so"}, *detects)
	assert.Empty(t, *creates)
	assert.True(t, DefaultClassCache().IsPreloaded(counterClass))
	assert.True(t, DefaultClassCache().IsPreloaded("java/lang/String"))

	entries := logs.FilterMessage("bridge initialized").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "detected", entries[0].ContextMap()["vm"])
	assertClean(t, vm)
}

func TestInitCreates(t *testing.T) {
	vm := jnitest.NewVM()
	_, creates, opts := stubStartup(t, nil, vm)

	err := Init(Config{
		AutoDetect: true,
		Create:     true,
		Version:    jni.Version1_8,
		Options:    []string{"-Xmx64m"},
	})
	require.NoError(t, err)
	assert.Equal(t, jni.VM(vm), JavaVM())
	assert.Len(t, *creates, 1)
	assert.Equal(t, jni.Version1_8, opts.Version)
	assert.Equal(t, []string{"-Xmx64m"}, opts.Options)
}

func TestInitFailures(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		detects, _, _ := stubStartup(t, jnitest.NewVM(), nil)
		assert.Error(t, Init(Config{}))
		assert.Empty(t, *detects)
	})
	t.Run("no vm and no create", func(t *testing.T) {
		stubStartup(t, nil, nil)
		err := Init(Config{AutoDetect: true})
		assert.ErrorIs(t, err, jvm.ErrNoVM)
		assert.Nil(t, currentVM())
	})
	t.Run("create fails", func(t *testing.T) {
		stubStartup(t, nil, nil)
		err := Init(Config{Create: true})
		assert.ErrorContains(t, err, "create java vm")
		assert.Nil(t, currentVM())
	})
	t.Run("preload stops at first missing class", func(t *testing.T) {
		vm := jnitest.NewVM()
		defineCounter(vm)
		stubStartup(t, vm, nil)
		err := Init(Config{AutoDetect: true, Preload: []string{"pkg/Missing", counterClass}})
		assert.ErrorIs(t, err, ErrClassNotFound)
		assert.False(t, DefaultClassCache().IsPreloaded(counterClass))
		assert.Zero(t, vm.FindClassCalls(counterClass))
	})
}
