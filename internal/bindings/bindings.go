//go:build (linux || darwin) && (amd64 || arm64)

// Package bindings loads the shared library that exports the JNI invocation
// API and registers its entry points using purego.
package bindings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"github.com/2gis/qtandroidextensions-sub000/internal/platform"
	"github.com/ebitengine/purego"
)

// ErrLibraryNotFound is returned when no JVM library can be found.
var ErrLibraryNotFound = errors.New("qjni: JVM library not found")

// ErrNotLoaded is returned when invocation functions are used before Load.
var ErrNotLoaded = errors.New("qjni: JVM library not loaded")

// ErrUnsupported is returned on platforms without a purego backend.
var ErrUnsupported = errors.New("qjni: JNI invocation API unsupported on this platform")

var (
	loadMu  sync.Mutex
	libJVM  uintptr
	libPath string

	getCreatedJavaVMs        func(vmBuf *uintptr, bufLen int32, nVMs *int32) int32
	createJavaVM             func(pvm *uintptr, penv *uintptr, args unsafe.Pointer) int32
	getDefaultJavaVMInitArgs func(args unsafe.Pointer) int32
)

// Load opens the JVM library and binds the invocation API. A non-empty path
// is tried before the search path. Success is cached; a failed Load may be
// retried, for example after the host process loaded the JVM.
func Load(path string) error {
	loadMu.Lock()
	defer loadMu.Unlock()

	if libJVM != 0 {
		return nil
	}

	lib, found, err := openLibrary(path)
	if err != nil {
		return err
	}

	// JNI_GetCreatedJavaVMs is the only symbol every host exports; Android
	// does not export JNI_CreateJavaVM to apps.
	sym, err := purego.Dlsym(lib, "JNI_GetCreatedJavaVMs")
	if err != nil {
		return fmt.Errorf("qjni: %s does not export JNI_GetCreatedJavaVMs: %w", found, err)
	}
	purego.RegisterFunc(&getCreatedJavaVMs, sym)
	if sym, err := purego.Dlsym(lib, "JNI_CreateJavaVM"); err == nil {
		purego.RegisterFunc(&createJavaVM, sym)
	}
	if sym, err := purego.Dlsym(lib, "JNI_GetDefaultJavaVMInitArgs"); err == nil {
		purego.RegisterFunc(&getDefaultJavaVMInitArgs, sym)
	}

	libJVM = lib
	libPath = found
	return nil
}

func openLibrary(explicit string) (uintptr, string, error) {
	candidates := make([]string, 0, 16)
	if explicit != "" {
		candidates = append(candidates, explicit)
	}
	// Bare names first: they resolve to a JVM the host already loaded.
	candidates = append(candidates, platform.VMLibraryNames()...)
	for _, dir := range LibrarySearchPaths() {
		for _, name := range platform.VMLibraryNames() {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}

	for _, c := range candidates {
		lib, err := purego.Dlopen(c, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return lib, c, nil
		}
	}
	return 0, "", fmt.Errorf("%w (tried %d locations)", ErrLibraryNotFound, len(candidates))
}

// FindLibrary searches the file system for the JVM library and returns its
// path without loading it. Useful for diagnostics.
func FindLibrary() (string, error) {
	for _, dir := range LibrarySearchPaths() {
		for _, name := range platform.VMLibraryNames() {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", ErrLibraryNotFound
}

// LibrarySearchPaths returns the directories searched for the JVM library:
// QJNI_JVM_DIR, the library directories of known Java homes, then the
// dynamic loader path.
func LibrarySearchPaths() []string {
	var paths []string
	if dir := os.Getenv("QJNI_JVM_DIR"); dir != "" {
		paths = append(paths, dir)
	}
	for _, home := range platform.DefaultJavaHomes() {
		paths = append(paths, platform.JavaHomeLibraryDirs(home)...)
	}
	switch platform.GOOS() {
	case "darwin":
		if p := os.Getenv("DYLD_LIBRARY_PATH"); p != "" {
			paths = append(paths, filepath.SplitList(p)...)
		}
	default:
		if p := os.Getenv("LD_LIBRARY_PATH"); p != "" {
			paths = append(paths, filepath.SplitList(p)...)
		}
		if platform.GOOS() == "android" {
			paths = append(paths, "/system/lib64", "/apex/com.android.art/lib64")
		}
	}
	return paths
}

// IsLoaded reports whether the JVM library is loaded.
func IsLoaded() bool {
	loadMu.Lock()
	defer loadMu.Unlock()
	return libJVM != 0
}

// Path returns the location the JVM library was loaded from.
func Path() string {
	loadMu.Lock()
	defer loadMu.Unlock()
	return libPath
}

// CanCreate reports whether the loaded library can boot a new VM.
func CanCreate() bool {
	loadMu.Lock()
	defer loadMu.Unlock()
	return createJavaVM != nil
}

// CreatedJavaVMs returns the JavaVM pointers already created in this process.
func CreatedJavaVMs() ([]uintptr, error) {
	loadMu.Lock()
	fn := getCreatedJavaVMs
	loadMu.Unlock()
	if fn == nil {
		return nil, ErrNotLoaded
	}

	var buf [1]uintptr
	var n int32
	if rc := fn(&buf[0], int32(len(buf)), &n); rc != 0 {
		return nil, fmt.Errorf("qjni: JNI_GetCreatedJavaVMs returned %d", rc)
	}
	if n <= 0 {
		return nil, nil
	}
	return buf[:1], nil
}

// CreateJavaVM boots a JVM with a prepared JavaVMInitArgs block and returns
// the JavaVM* and the JNIEnv* of the calling thread.
func CreateJavaVM(args unsafe.Pointer) (vm, env uintptr, status int32, err error) {
	loadMu.Lock()
	fn := createJavaVM
	loadMu.Unlock()
	if fn == nil {
		return 0, 0, 0, ErrNotLoaded
	}
	status = fn(&vm, &env, args)
	return vm, env, status, nil
}

// DefaultInitArgs fills the version-specific defaults of a JavaVMInitArgs
// block. It is a no-op returning -1 when the library lacks the symbol.
func DefaultInitArgs(args unsafe.Pointer) int32 {
	loadMu.Lock()
	fn := getDefaultJavaVMInitArgs
	loadMu.Unlock()
	if fn == nil {
		return -1
	}
	return fn(args)
}
