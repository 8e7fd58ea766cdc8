//go:build !((linux || darwin) && (amd64 || arm64))

package bindings

import (
	"errors"
	"unsafe"
)

// ErrLibraryNotFound is returned when no JVM library can be found.
var ErrLibraryNotFound = errors.New("qjni: JVM library not found")

// ErrNotLoaded is returned when invocation functions are used before Load.
var ErrNotLoaded = errors.New("qjni: JVM library not loaded")

// ErrUnsupported is returned on platforms without a purego backend.
var ErrUnsupported = errors.New("qjni: JNI invocation API unsupported on this platform")

func Load(string) error { return ErrUnsupported }
func FindLibrary() (string, error) { return "", ErrUnsupported }
func LibrarySearchPaths() []string { return nil }
func IsLoaded() bool { return false }
func Path() string { return "" }
func CanCreate() bool { return false }
func CreatedJavaVMs() ([]uintptr, error) { return nil, ErrUnsupported }
func DefaultInitArgs(unsafe.Pointer) int32 { return -1 }

func CreateJavaVM(unsafe.Pointer) (vm, env uintptr, status int32, err error) {
	return 0, 0, 0, ErrUnsupported
}
