//go:build (linux || darwin) && (amd64 || arm64)

// Package jvm implements the jni interfaces on top of a real Java virtual
// machine without cgo. The JNI invocation and native interfaces are plain C
// function tables; every slot the bridge needs is bound once per table with
// purego.
package jvm

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/2gis/qtandroidextensions-sub000/internal/bindings"
	"github.com/2gis/qtandroidextensions-sub000/jni"
	"github.com/ebitengine/purego"
)

// ErrNoVM is returned by Detect when the process has not created a JVM.
var ErrNoVM = errors.New("qjni: no Java VM created in this process")

// ErrUnsupported is returned on platforms without a purego backend.
var ErrUnsupported = bindings.ErrUnsupported

// Slots of JNIInvokeInterface.
const (
	slotDestroyJavaVM       = 3
	slotAttachCurrentThread = 4
	slotDetachCurrentThread = 5
	slotGetEnv              = 6
)

// VM is a JavaVM* reached through its invocation interface.
type VM struct {
	ptr uintptr

	destroy func(vm uintptr) int32
	attach  func(vm uintptr, penv *uintptr, args unsafe.Pointer) int32
	detach  func(vm uintptr) int32
	getEnv  func(vm uintptr, penv *uintptr, version int32) int32

	version int32
}

var (
	vmsMu sync.Mutex
	vms   = make(map[uintptr]*VM)
)

// FromPointer wraps a JavaVM* obtained elsewhere, for example the argument
// of JNI_OnLoad. Wrapping the same pointer twice returns the same *VM.
func FromPointer(ptr uintptr) *VM {
	if ptr == 0 {
		return nil
	}
	vmsMu.Lock()
	defer vmsMu.Unlock()
	if vm, ok := vms[ptr]; ok {
		return vm
	}

	vm := &VM{ptr: ptr, version: jni.Version1_6}
	table := *(*uintptr)(unsafe.Pointer(ptr))
	purego.RegisterFunc(&vm.destroy, slot(table, slotDestroyJavaVM))
	purego.RegisterFunc(&vm.attach, slot(table, slotAttachCurrentThread))
	purego.RegisterFunc(&vm.detach, slot(table, slotDetachCurrentThread))
	purego.RegisterFunc(&vm.getEnv, slot(table, slotGetEnv))
	vms[ptr] = vm
	return vm
}

// Detect returns the VM already created in this process, loading the JVM
// library from libraryPath or the default search path if necessary.
func Detect(libraryPath string) (*VM, error) {
	if err := bindings.Load(libraryPath); err != nil {
		return nil, err
	}
	ptrs, err := bindings.CreatedJavaVMs()
	if err != nil {
		return nil, err
	}
	if len(ptrs) == 0 {
		return nil, ErrNoVM
	}
	return FromPointer(ptrs[0]), nil
}

// Options configures Create.
type Options struct {
	// LibraryPath is tried before the default search path.
	LibraryPath string
	// Version is the requested JNI version; zero selects 1.6.
	Version int32
	// Options are passed verbatim, e.g. "-Djava.class.path=app.jar", "-Xmx256m".
	Options []string
	// IgnoreUnrecognized makes the VM skip unknown non-standard options.
	IgnoreUnrecognized bool
}

// javaVMOption mirrors JavaVMOption.
type javaVMOption struct {
	optionString *byte
	extraInfo    unsafe.Pointer
}

// javaVMInitArgs mirrors JavaVMInitArgs.
type javaVMInitArgs struct {
	version            int32
	nOptions           int32
	options            *javaVMOption
	ignoreUnrecognized uint8
}

// Create boots a JVM inside this process. The calling thread becomes
// attached to it. A process can host at most one VM; a second Create fails
// with the status the JVM reports.
func Create(opts Options) (*VM, error) {
	if err := bindings.Load(opts.LibraryPath); err != nil {
		return nil, err
	}
	if !bindings.CanCreate() {
		return nil, fmt.Errorf("qjni: %s cannot create a Java VM", bindings.Path())
	}

	version := opts.Version
	if version == 0 {
		version = jni.Version1_6
	}

	cstrs := make([][]byte, len(opts.Options))
	options := make([]javaVMOption, len(opts.Options))
	for i, o := range opts.Options {
		cstrs[i] = append([]byte(o), 0)
		options[i].optionString = &cstrs[i][0]
	}
	args := javaVMInitArgs{
		version:  version,
		nOptions: int32(len(options)),
	}
	if len(options) > 0 {
		args.options = &options[0]
	}
	if opts.IgnoreUnrecognized {
		args.ignoreUnrecognized = 1
	}

	// The creating thread is attached by JNI_CreateJavaVM; keep the
	// goroutine on it until the call returns.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ptr, _, status, err := bindings.CreateJavaVM(unsafe.Pointer(&args))
	runtime.KeepAlive(cstrs)
	runtime.KeepAlive(options)
	if err != nil {
		return nil, err
	}
	if jni.Status(status) != jni.OK {
		return nil, fmt.Errorf("qjni: JNI_CreateJavaVM(%s) failed: %s",
			strings.Join(opts.Options, " "), jni.Status(status))
	}
	vm := FromPointer(ptr)
	vm.version = version
	return vm, nil
}

// Pointer returns the raw JavaVM*.
func (vm *VM) Pointer() uintptr { return vm.ptr }

// GetEnv implements jni.VM.
func (vm *VM) GetEnv(version int32) (jni.Env, jni.Status) {
	var envp uintptr
	st := jni.Status(vm.getEnv(vm.ptr, &envp, version))
	if st != jni.OK {
		return nil, st
	}
	return vm.wrap(envp), jni.OK
}

// AttachCurrentThread implements jni.VM.
func (vm *VM) AttachCurrentThread() (jni.Env, jni.Status) {
	var envp uintptr
	st := jni.Status(vm.attach(vm.ptr, &envp, nil))
	if st != jni.OK {
		return nil, st
	}
	return vm.wrap(envp), jni.OK
}

// DetachCurrentThread implements jni.VM.
func (vm *VM) DetachCurrentThread() jni.Status {
	return jni.Status(vm.detach(vm.ptr))
}

// Destroy unloads the VM. Only the thread that created it should call this,
// and no other thread may use the VM afterwards.
func (vm *VM) Destroy() jni.Status {
	st := jni.Status(vm.destroy(vm.ptr))
	if st == jni.OK {
		vmsMu.Lock()
		delete(vms, vm.ptr)
		vmsMu.Unlock()
	}
	return st
}

func (vm *VM) wrap(envp uintptr) *Env {
	return &Env{ptr: envp, vm: vm, fn: functionsFor(envp)}
}

// slot returns the function pointer at index i of a C function table.
func slot(table uintptr, i int) uintptr {
	return *(*uintptr)(unsafe.Pointer(table + uintptr(i)*unsafe.Sizeof(uintptr(0))))
}
