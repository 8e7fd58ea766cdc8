//go:build !((linux || darwin) && (amd64 || arm64))

package jvm

import (
	"errors"

	"github.com/2gis/qtandroidextensions-sub000/internal/bindings"
	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// ErrNoVM is returned by Detect when the process has not created a JVM.
var ErrNoVM = errors.New("qjni: no Java VM created in this process")

// ErrUnsupported is returned on platforms without a purego backend.
var ErrUnsupported = bindings.ErrUnsupported

// Options configures Create.
type Options struct {
	LibraryPath        string
	Version            int32
	Options            []string
	IgnoreUnrecognized bool
}

// VM is unavailable on this platform.
type VM struct{}

func (*VM) GetEnv(int32) (jni.Env, jni.Status) { return nil, jni.ErrStatus }
func (*VM) AttachCurrentThread() (jni.Env, jni.Status) { return nil, jni.ErrStatus }
func (*VM) DetachCurrentThread() jni.Status { return jni.ErrStatus }

func FromPointer(uintptr) *VM { return nil }

func Detect(string) (*VM, error) { return nil, ErrUnsupported }

func Create(Options) (*VM, error) { return nil, ErrUnsupported }
