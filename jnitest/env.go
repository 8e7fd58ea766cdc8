package jnitest

import (
	"fmt"
	"unsafe"

	"github.com/2gis/qtandroidextensions-sub000/internal/platform"
	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// Env is the environment of one attached thread.
type Env struct {
	vm      *VM
	tid     int64
	frames  [][]jni.Ref
	pending *Instance
	pinned  map[unsafe.Pointer][]uint64
}

var _ jni.Env = (*Env)(nil)

// Operations the runtime accepts while an exception is pending.
var exceptionSafe = map[string]bool{
	"ExceptionCheck":       true,
	"ExceptionOccurred":    true,
	"ExceptionDescribe":    true,
	"ExceptionClear":       true,
	"DeleteLocalRef":       true,
	"DeleteGlobalRef":      true,
	"PushLocalFrame":       true,
	"PopLocalFrame":        true,
	"ReleaseArrayElements": true,
}

// enter must be called with vm.mu held.
func (e *Env) enter(op string) {
	if tid := platform.ThreadID(); tid != e.tid {
		e.vm.violation("%s: env of thread %d used on thread %d", op, e.tid, tid)
	}
	if e.vm.envs[e.tid] != e {
		e.vm.violation("%s: env used after its thread detached", op)
	}
	if e.pending != nil && !exceptionSafe[op] {
		e.vm.violation("%s called with pending %s", op, e.pending.ClassName())
	}
}

// throw must be called without vm.mu held.
func (e *Env) throw(className, msg string) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.throwLocked(className, msg)
}

func (e *Env) throwLocked(className, msg string) {
	cls := e.vm.classes[className]
	if cls == nil {
		cls = e.vm.classes["java/lang/RuntimeException"]
	}
	e.pending = &Instance{class: cls, Message: msg}
}

func (e *Env) local(obj *Instance) jni.Ref { return e.vm.newRef(obj, localRef, e) }

// classOf must be called with vm.mu held. It resolves a reference to a class
// object.
func (e *Env) classOf(op string, r jni.Ref) *Class {
	obj := e.vm.deref(r)
	if obj == nil || obj.classOf == nil {
		e.vm.violation("%s: %#x is not a class reference", op, uintptr(r))
		return nil
	}
	return obj.classOf
}

func (e *Env) GetVersion() int32 { return jni.Version1_6 }

func (e *Env) VM() jni.VM { return e.vm }

func (e *Env) FindClass(name string) jni.Ref {
	vm := e.vm
	vm.mu.Lock()
	defer vm.mu.Unlock()
	e.enter("FindClass")
	vm.findClassCalls[name]++
	cls, ok := vm.classes[name]
	if ok && vm.findClassFilter != nil && !vm.findClassFilter(name) {
		ok = false
	}
	if !ok {
		e.throwLocked("java/lang/NoClassDefFoundError", name)
		return 0
	}
	return e.local(cls.object)
}

func (e *Env) GetObjectClass(obj jni.Ref) jni.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("GetObjectClass")
	o := e.vm.deref(obj)
	if o == nil || o.class == nil {
		// Arrays have no class object in this runtime.
		return 0
	}
	return e.local(o.class.object)
}

func (e *Env) GetSuperclass(cls jni.Ref) jni.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("GetSuperclass")
	c := e.classOf("GetSuperclass", cls)
	if c == nil || c.super == nil {
		return 0
	}
	return e.local(c.super.object)
}

func (e *Env) IsAssignableFrom(sub, sup jni.Ref) bool {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("IsAssignableFrom")
	a, b := e.classOf("IsAssignableFrom", sub), e.classOf("IsAssignableFrom", sup)
	return a != nil && b != nil && a.isSubclassOf(b)
}

func (e *Env) IsInstanceOf(obj, cls jni.Ref) bool {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("IsInstanceOf")
	c := e.classOf("IsInstanceOf", cls)
	if obj == 0 {
		return true
	}
	o := e.vm.deref(obj)
	if o == nil || c == nil {
		return false
	}
	if o.class == nil {
		return c.name == "java/lang/Object"
	}
	return o.class.isSubclassOf(c)
}

func (e *Env) IsSameObject(a, b jni.Ref) bool {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("IsSameObject")
	return e.vm.deref(a) == e.vm.deref(b)
}

func (e *Env) NewGlobalRef(r jni.Ref) jni.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("NewGlobalRef")
	return e.vm.newRef(e.vm.deref(r), globalRef, nil)
}

func (e *Env) DeleteGlobalRef(r jni.Ref) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("DeleteGlobalRef")
	e.vm.deleteRef(r, globalRef)
}

func (e *Env) NewLocalRef(r jni.Ref) jni.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("NewLocalRef")
	return e.local(e.vm.deref(r))
}

func (e *Env) DeleteLocalRef(r jni.Ref) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("DeleteLocalRef")
	if en, ok := e.vm.refs[r]; ok && en.kind == localRef && en.env != e {
		e.vm.violation("DeleteLocalRef: %#x belongs to another thread", uintptr(r))
	}
	e.vm.deleteRef(r, localRef)
}

func (e *Env) PushLocalFrame(capacity int32) jni.Status {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("PushLocalFrame")
	if capacity < 0 {
		return jni.ErrStatus
	}
	e.frames = append(e.frames, nil)
	return jni.OK
}

func (e *Env) PopLocalFrame(result jni.Ref) jni.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("PopLocalFrame")
	if len(e.frames) == 0 {
		e.vm.violation("PopLocalFrame without PushLocalFrame")
		return 0
	}
	var obj *Instance
	if result != 0 {
		obj = e.vm.deref(result)
	}
	top := e.frames[len(e.frames)-1]
	e.frames = e.frames[:len(e.frames)-1]
	for _, r := range top {
		if _, ok := e.vm.refs[r]; ok {
			delete(e.vm.refs, r)
			e.vm.released[r] = true
		}
	}
	return e.local(obj)
}

func (e *Env) lookupMethod(op string, cls jni.Ref, name, sig string, static bool) jni.MethodID {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter(op)
	c := e.classOf(op, cls)
	if c == nil {
		return 0
	}
	m := c.lookupMethod(name+sig, static)
	if m == nil {
		e.throwLocked("java/lang/NoSuchMethodError", name)
		return 0
	}
	return m.id
}

func (e *Env) GetMethodID(cls jni.Ref, name, sig string) jni.MethodID {
	return e.lookupMethod("GetMethodID", cls, name, sig, false)
}

func (e *Env) GetStaticMethodID(cls jni.Ref, name, sig string) jni.MethodID {
	return e.lookupMethod("GetStaticMethodID", cls, name, sig, true)
}

func (e *Env) lookupField(op string, cls jni.Ref, name, sig string, static bool) jni.FieldID {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter(op)
	c := e.classOf(op, cls)
	if c == nil {
		return 0
	}
	f := c.lookupField(name, static)
	if f == nil || f.sig != sig {
		e.throwLocked("java/lang/NoSuchFieldError", name)
		return 0
	}
	return f.id
}

func (e *Env) GetFieldID(cls jni.Ref, name, sig string) jni.FieldID {
	return e.lookupField("GetFieldID", cls, name, sig, false)
}

func (e *Env) GetStaticFieldID(cls jni.Ref, name, sig string) jni.FieldID {
	return e.lookupField("GetStaticFieldID", cls, name, sig, true)
}

func sameKind(a, b jni.Type) bool {
	return a == b || (a.IsReference() && b.IsReference())
}

// resolve picks the implementation to run for an invocation and must be
// called with vm.mu held.
func (e *Env) resolve(op string, target jni.Ref, m jni.MethodID, ret jni.Type, static bool) *Method {
	method := e.vm.methods[m]
	if method == nil {
		e.vm.violation("%s: unknown method id %#x", op, uintptr(m))
		return nil
	}
	if method.static != static {
		e.vm.violation("%s: %s%s has the wrong staticness", op, method.name, method.sig)
		return nil
	}
	if !sameKind(method.ret, ret) {
		e.vm.violation("%s: %s%s returns %s, called as %s", op, method.name, method.sig, method.ret, ret)
	}
	if static {
		if e.classOf(op, target) == nil {
			return nil
		}
		return method
	}
	obj := e.vm.deref(target)
	if obj == nil {
		e.throwLocked("java/lang/NullPointerException", method.name)
		return nil
	}
	if obj.class != nil && method.name != "<init>" {
		if override := obj.class.lookupMethod(method.name+method.sig, false); override != nil {
			method = override
		}
	}
	return method
}

func (e *Env) invoke(method *Method, this jni.Ref, args []jni.Value) jni.Value {
	if method.native {
		v, err := e.callRegistered(method, this, args)
		if err != nil {
			e.throw("java/lang/UnsatisfiedLinkError", err.Error())
			return 0
		}
		return v
	}
	v := method.impl(&Call{env: e, method: method, this: this, args: args})
	if method.ret == jni.Void {
		return 0
	}
	return v
}

func (e *Env) CallMethodA(obj jni.Ref, m jni.MethodID, ret jni.Type, args []jni.Value) jni.Value {
	e.vm.mu.Lock()
	e.enter("CallMethodA")
	method := e.resolve("CallMethodA", obj, m, ret, false)
	e.vm.mu.Unlock()
	if method == nil {
		return 0
	}
	return e.invoke(method, obj, args)
}

func (e *Env) CallStaticMethodA(cls jni.Ref, m jni.MethodID, ret jni.Type, args []jni.Value) jni.Value {
	e.vm.mu.Lock()
	e.enter("CallStaticMethodA")
	method := e.resolve("CallStaticMethodA", cls, m, ret, true)
	e.vm.mu.Unlock()
	if method == nil {
		return 0
	}
	return e.invoke(method, cls, args)
}

func (e *Env) NewObjectA(cls jni.Ref, ctor jni.MethodID, args []jni.Value) jni.Ref {
	vm := e.vm
	vm.mu.Lock()
	e.enter("NewObjectA")
	c := e.classOf("NewObjectA", cls)
	method := vm.methods[ctor]
	if c == nil || method == nil || method.name != "<init>" {
		vm.violation("NewObjectA: %#x is not a constructor", uintptr(ctor))
		vm.mu.Unlock()
		return 0
	}
	r := e.local(&Instance{class: c})
	vm.mu.Unlock()

	e.invoke(method, r, args)
	if e.ExceptionCheck() {
		e.DeleteLocalRef(r)
		return 0
	}
	return r
}

// field must be called with vm.mu held.
func (e *Env) field(op string, f jni.FieldID, t jni.Type, static bool) *Field {
	fd := e.vm.fields[f]
	if fd == nil || fd.static != static {
		e.vm.violation("%s: unknown field id %#x", op, uintptr(f))
		return nil
	}
	if !sameKind(fd.typ, t) {
		e.vm.violation("%s: field %s is %s, accessed as %s", op, fd.name, fd.typ, t)
	}
	return fd
}

func (e *Env) GetField(obj jni.Ref, f jni.FieldID, t jni.Type) jni.Value {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("GetField")
	o := e.vm.deref(obj)
	if e.field("GetField", f, t, false) == nil || o == nil {
		return 0
	}
	if t.IsReference() {
		return jni.RefValue(e.local(o.objs[f]))
	}
	return o.fields[f]
}

func (e *Env) SetField(obj jni.Ref, f jni.FieldID, t jni.Type, v jni.Value) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("SetField")
	o := e.vm.deref(obj)
	if e.field("SetField", f, t, false) == nil || o == nil {
		return
	}
	if t.IsReference() {
		o.setObj(f, e.vm.deref(v.Ref()))
		return
	}
	o.setPrim(f, v)
}

func (e *Env) GetStaticField(cls jni.Ref, f jni.FieldID, t jni.Type) jni.Value {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("GetStaticField")
	fd := e.field("GetStaticField", f, t, true)
	if fd == nil || e.classOf("GetStaticField", cls) == nil {
		return 0
	}
	if t.IsReference() {
		return jni.RefValue(e.local(fd.class.object.objs[f]))
	}
	return fd.class.object.fields[f]
}

func (e *Env) SetStaticField(cls jni.Ref, f jni.FieldID, t jni.Type, v jni.Value) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("SetStaticField")
	fd := e.field("SetStaticField", f, t, true)
	if fd == nil || e.classOf("SetStaticField", cls) == nil {
		return
	}
	if t.IsReference() {
		fd.class.object.setObj(f, e.vm.deref(v.Ref()))
		return
	}
	fd.class.object.setPrim(f, v)
}

func (e *Env) NewString(chars []uint16) jni.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("NewString")
	buf := make([]uint16, len(chars))
	copy(buf, chars)
	return e.local(&Instance{class: e.vm.classes["java/lang/String"], chars: buf})
}

func (e *Env) GetStringChars(str jni.Ref) []uint16 {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("GetStringChars")
	o := e.vm.deref(str)
	if o == nil || !isStringClass(o.class) {
		e.vm.violation("GetStringChars: %#x is not a string", uintptr(str))
		return nil
	}
	buf := make([]uint16, len(o.chars))
	copy(buf, o.chars)
	return buf
}

// array must be called with vm.mu held.
func (e *Env) array(op string, arr jni.Ref) *Instance {
	o := e.vm.deref(arr)
	if o == nil || o.array == nil {
		e.vm.violation("%s: %#x is not an array", op, uintptr(arr))
		return nil
	}
	return o
}

func (e *Env) GetArrayLength(arr jni.Ref) int {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("GetArrayLength")
	o := e.array("GetArrayLength", arr)
	if o == nil {
		return 0
	}
	return o.Len()
}

func (e *Env) NewPrimitiveArray(elem jni.Type, length int) jni.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("NewPrimitiveArray")
	if !elem.IsPrimitive() || length < 0 {
		e.vm.violation("NewPrimitiveArray: bad element type %s or length %d", elem, length)
		return 0
	}
	return e.local(&Instance{elem: elem, array: &primArray{elem: elem, n: length, data: make([]byte, length*elem.Size())}})
}

func (e *Env) NewObjectArray(length int, elemClass, initial jni.Ref) jni.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("NewObjectArray")
	if e.classOf("NewObjectArray", elemClass) == nil || length < 0 {
		return 0
	}
	init := e.vm.deref(initial)
	elems := make([]*Instance, length)
	for i := range elems {
		elems[i] = init
	}
	return e.local(&Instance{elem: jni.Object, array: elems})
}

func (e *Env) objectArray(op string, arr jni.Ref, index int) []*Instance {
	o := e.array(op, arr)
	if o == nil {
		return nil
	}
	elems, ok := o.array.([]*Instance)
	if !ok {
		e.vm.violation("%s: %#x is a primitive array", op, uintptr(arr))
		return nil
	}
	if index < 0 || index >= len(elems) {
		e.throwLocked("java/lang/ArrayIndexOutOfBoundsException", fmt.Sprintf("index %d out of bounds for length %d", index, len(elems)))
		return nil
	}
	return elems
}

func (e *Env) GetObjectArrayElement(arr jni.Ref, index int) jni.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("GetObjectArrayElement")
	elems := e.objectArray("GetObjectArrayElement", arr, index)
	if elems == nil {
		return 0
	}
	return e.local(elems[index])
}

func (e *Env) SetObjectArrayElement(arr jni.Ref, index int, v jni.Ref) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("SetObjectArrayElement")
	elems := e.objectArray("SetObjectArrayElement", arr, index)
	if elems == nil {
		return
	}
	elems[index] = e.vm.deref(v)
}

func (e *Env) primArray(op string, arr jni.Ref, elem jni.Type) *primArray {
	o := e.array(op, arr)
	if o == nil {
		return nil
	}
	p, ok := o.array.(*primArray)
	if !ok || p.elem != elem {
		e.vm.violation("%s: %#x is not a %s array", op, uintptr(arr), elem)
		return nil
	}
	return p
}

// GetArrayElements always copies. The copy is 8-byte aligned so it can be
// viewed as any primitive slice.
func (e *Env) GetArrayElements(arr jni.Ref, elem jni.Type) unsafe.Pointer {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("GetArrayElements")
	p := e.primArray("GetArrayElements", arr, elem)
	if p == nil {
		return nil
	}
	words := make([]uint64, (len(p.data)+7)/8+1)
	ptr := unsafe.Pointer(&words[0])
	copy(unsafe.Slice((*byte)(ptr), len(p.data)), p.data)
	if e.pinned == nil {
		e.pinned = make(map[unsafe.Pointer][]uint64)
	}
	e.pinned[ptr] = words
	return ptr
}

func (e *Env) ReleaseArrayElements(arr jni.Ref, elem jni.Type, elems unsafe.Pointer, mode jni.ReleaseMode) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("ReleaseArrayElements")
	if _, ok := e.pinned[elems]; !ok {
		e.vm.violation("ReleaseArrayElements: buffer %p was not obtained on this thread", elems)
		return
	}
	p := e.primArray("ReleaseArrayElements", arr, elem)
	if p == nil {
		return
	}
	if mode != jni.Abort {
		copy(p.data, unsafe.Slice((*byte)(elems), len(p.data)))
	}
	if mode != jni.Commit {
		delete(e.pinned, elems)
	}
	e.vm.arrayReleases[mode]++
}

func (e *Env) SetArrayRegion(arr jni.Ref, elem jni.Type, start, length int, buf unsafe.Pointer) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("SetArrayRegion")
	p := e.primArray("SetArrayRegion", arr, elem)
	if p == nil {
		return
	}
	if start < 0 || length < 0 || start+length > p.n {
		e.throwLocked("java/lang/ArrayIndexOutOfBoundsException", fmt.Sprintf("region %d+%d out of bounds for length %d", start, length, p.n))
		return
	}
	if length == 0 {
		return
	}
	size := elem.Size()
	copy(p.data[start*size:(start+length)*size], unsafe.Slice((*byte)(buf), length*size))
}

func (e *Env) ExceptionCheck() bool {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("ExceptionCheck")
	return e.pending != nil
}

func (e *Env) ExceptionOccurred() jni.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("ExceptionOccurred")
	return e.local(e.pending)
}

// ExceptionDescribe records the pending exception in the VM's log and clears
// it.
func (e *Env) ExceptionDescribe() {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("ExceptionDescribe")
	if e.pending == nil {
		return
	}
	s := jni.DotName(e.pending.ClassName())
	if e.pending.Message != "" {
		s += ": " + e.pending.Message
	}
	e.vm.described = append(e.vm.described, s)
	e.pending = nil
}

func (e *Env) ExceptionClear() {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("ExceptionClear")
	e.pending = nil
}

func (e *Env) ThrowNew(cls jni.Ref, msg string) jni.Status {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("ThrowNew")
	c := e.classOf("ThrowNew", cls)
	if c == nil {
		return jni.ErrStatus
	}
	e.pending = &Instance{class: c, Message: msg}
	return jni.OK
}

func (e *Env) RegisterNatives(cls jni.Ref, methods []jni.NativeMethod) jni.Status {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("RegisterNatives")
	c := e.classOf("RegisterNatives", cls)
	if c == nil {
		return jni.ErrStatus
	}
	for _, nm := range methods {
		key := nm.Name + nm.Signature
		m := c.methods[key]
		if m == nil {
			m = c.statics[key]
		}
		if m == nil || !m.native {
			e.throwLocked("java/lang/NoSuchMethodError", nm.Name)
			return jni.ErrStatus
		}
		if err := checkNativeFunc(m, nm.Func); err != nil {
			e.vm.violation("RegisterNatives: %s: %v", key, err)
			return jni.Inval
		}
	}
	for _, nm := range methods {
		c.natives[nm.Name+nm.Signature] = nm.Func
	}
	return jni.OK
}

func (e *Env) UnregisterNatives(cls jni.Ref) jni.Status {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.enter("UnregisterNatives")
	c := e.classOf("UnregisterNatives", cls)
	if c == nil {
		return jni.ErrStatus
	}
	c.natives = make(map[string]any)
	return jni.OK
}

// primArray is the storage of a primitive array.
type primArray struct {
	elem jni.Type
	n    int
	data []byte
}

// Len returns the length of an array instance, or -1 for other objects.
func (o *Instance) Len() int {
	switch a := o.array.(type) {
	case *primArray:
		return a.n
	case []*Instance:
		return len(a)
	}
	return -1
}
