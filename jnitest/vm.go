// Package jnitest provides an in-memory managed runtime implementing the jni
// interfaces. It stands in for a Java VM in tests of the qjni bridge and of
// code built on it.
//
// The runtime models what the bridge depends on: classes with Go-implemented
// methods and fields, strings, arrays, local and global references,
// per-thread attachment, pending exceptions and native method registration.
// It also counts what tests need to assert on: attaches, detaches, class
// lookups, live references and misuse such as using an Env on the wrong
// thread or calling into the runtime with an exception pending.
package jnitest

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/2gis/qtandroidextensions-sub000/internal/platform"
	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// Reference and member ids are unique across every VM in the process, so a
// reference leaked from one test can never alias a live one in another.
var (
	nextRef atomic.Uint64
	nextID  atomic.Uint64
)

func init() {
	nextRef.Store(0x1000)
	nextID.Store(0x100)
}

func newRefID() jni.Ref { return jni.Ref(nextRef.Add(8)) }
func newMemberID() uintptr { return uintptr(nextID.Add(1)) }

type refKind int

const (
	localRef refKind = iota
	globalRef
)

type refEntry struct {
	obj  *Instance
	kind refKind
	env  *Env
}

// VM is an in-memory managed runtime. It is safe for concurrent use.
type VM struct {
	mu       sync.Mutex
	classes  map[string]*Class
	refs     map[jni.Ref]*refEntry
	released map[jni.Ref]bool
	envs     map[int64]*Env
	methods  map[jni.MethodID]*Method
	fields   map[jni.FieldID]*Field

	findClassFilter func(name string) bool
	attachStatus    jni.Status

	attaches       int
	detaches       int
	findClassCalls map[string]int
	arrayReleases  map[jni.ReleaseMode]int
	violations     []string
	described      []string
}

var _ jni.VM = (*VM)(nil)

// NewVM returns a runtime with the java/lang classes the bridge relies on.
func NewVM() *VM {
	vm := &VM{
		classes:        make(map[string]*Class),
		refs:           make(map[jni.Ref]*refEntry),
		released:       make(map[jni.Ref]bool),
		envs:           make(map[int64]*Env),
		methods:        make(map[jni.MethodID]*Method),
		fields:         make(map[jni.FieldID]*Field),
		findClassCalls: make(map[string]int),
		arrayReleases:  make(map[jni.ReleaseMode]int),
	}
	vm.defineBuiltins()
	return vm
}

// SetFindClassFilter restricts which classes FindClass can see. Classes it
// rejects stay reachable through java/lang/ClassLoader.loadClass, which is
// how app classes behave on threads not created by the runtime.
func (vm *VM) SetFindClassFilter(filter func(name string) bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.findClassFilter = filter
}

// FailAttach makes AttachCurrentThread fail with status until reset with
// jni.OK.
func (vm *VM) FailAttach(status jni.Status) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.attachStatus = status
}

// GetEnv implements jni.VM.
func (vm *VM) GetEnv(version int32) (jni.Env, jni.Status) {
	if version > jni.Version1_8 {
		return nil, jni.BadVer
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if env, ok := vm.envs[platform.ThreadID()]; ok {
		return env, jni.OK
	}
	return nil, jni.Detached
}

// AttachCurrentThread implements jni.VM.
func (vm *VM) AttachCurrentThread() (jni.Env, jni.Status) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	tid := platform.ThreadID()
	if env, ok := vm.envs[tid]; ok {
		return env, jni.OK
	}
	if vm.attachStatus != jni.OK {
		return nil, vm.attachStatus
	}
	env := &Env{vm: vm, tid: tid}
	vm.envs[tid] = env
	vm.attaches++
	return env, jni.OK
}

// DetachCurrentThread implements jni.VM. Local references of the thread are
// freed.
func (vm *VM) DetachCurrentThread() jni.Status {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	tid := platform.ThreadID()
	env, ok := vm.envs[tid]
	if !ok {
		return jni.Detached
	}
	for r, e := range vm.refs {
		if e.kind == localRef && e.env == env {
			delete(vm.refs, r)
		}
	}
	delete(vm.envs, tid)
	vm.detaches++
	return jni.OK
}

// IsAttached reports whether the calling OS thread is attached.
func (vm *VM) IsAttached() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	_, ok := vm.envs[platform.ThreadID()]
	return ok
}

// Attaches returns how many times a thread was attached.
func (vm *VM) Attaches() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.attaches
}

// Detaches returns how many times a thread was detached.
func (vm *VM) Detaches() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.detaches
}

// FindClassCalls returns how many times FindClass was asked for name.
func (vm *VM) FindClassCalls(name string) int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.findClassCalls[name]
}

// ArrayReleases returns how many primitive array buffers were released with
// mode.
func (vm *VM) ArrayReleases(mode jni.ReleaseMode) int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.arrayReleases[mode]
}

// LiveGlobalRefs returns the number of global references not yet deleted.
func (vm *VM) LiveGlobalRefs() int { return vm.countRefs(globalRef) }

// LiveLocalRefs returns the number of local references not yet deleted on
// all threads.
func (vm *VM) LiveLocalRefs() int { return vm.countRefs(localRef) }

func (vm *VM) countRefs(kind refKind) int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	n := 0
	for _, e := range vm.refs {
		if e.kind == kind {
			n++
		}
	}
	return n
}

// Violations returns the misuse the runtime observed, such as deleting a
// reference twice, using an Env from another thread or calling into the
// runtime while an exception is pending.
func (vm *VM) Violations() []string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	out := make([]string, len(vm.violations))
	copy(out, vm.violations)
	return out
}

// Described returns the exceptions passed to ExceptionDescribe, rendered as
// "class: message".
func (vm *VM) Described() []string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	out := make([]string, len(vm.described))
	copy(out, vm.described)
	return out
}

// ClassNames returns the names of all defined classes, sorted.
func (vm *VM) ClassNames() []string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	names := make([]string, 0, len(vm.classes))
	for n := range vm.classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Object returns the instance a reference points to, or nil.
func (vm *VM) Object(r jni.Ref) *Instance {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if e, ok := vm.refs[r]; ok {
		return e.obj
	}
	return nil
}

// RefIsGlobal reports whether r is a live global reference.
func (vm *VM) RefIsGlobal(r jni.Ref) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	e, ok := vm.refs[r]
	return ok && e.kind == globalRef
}

func (vm *VM) violation(format string, args ...any) {
	vm.violations = append(vm.violations, fmt.Sprintf(format, args...))
}

// newRef must be called with vm.mu held.
func (vm *VM) newRef(obj *Instance, kind refKind, env *Env) jni.Ref {
	if obj == nil {
		return 0
	}
	r := newRefID()
	vm.refs[r] = &refEntry{obj: obj, kind: kind, env: env}
	if kind == localRef && env != nil && len(env.frames) > 0 {
		top := len(env.frames) - 1
		env.frames[top] = append(env.frames[top], r)
	}
	return r
}

// deref must be called with vm.mu held.
func (vm *VM) deref(r jni.Ref) *Instance {
	if r == 0 {
		return nil
	}
	e, ok := vm.refs[r]
	if !ok {
		if vm.released[r] {
			vm.violation("use of deleted reference %#x", uintptr(r))
		} else {
			vm.violation("use of unknown reference %#x", uintptr(r))
		}
		return nil
	}
	return e.obj
}

func (vm *VM) deleteRef(r jni.Ref, kind refKind) {
	if r == 0 {
		return
	}
	e, ok := vm.refs[r]
	if !ok {
		if vm.released[r] {
			vm.violation("double delete of reference %#x", uintptr(r))
		}
		return
	}
	if e.kind != kind {
		vm.violation("reference %#x deleted with the wrong kind", uintptr(r))
	}
	delete(vm.refs, r)
	vm.released[r] = true
}
