//go:build (linux || darwin) && (amd64 || arm64)

package jvm

import (
	"runtime"
	"unsafe"

	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// Env is a JNIEnv* of one attached thread.
type Env struct {
	ptr uintptr
	vm  *VM
	fn  *functions
}

var _ jni.Env = (*Env)(nil)

// EnvFromPointer wraps a raw JNIEnv*, for example the first argument of a
// native method implemented in C.
func EnvFromPointer(envp uintptr) *Env {
	if envp == 0 {
		return nil
	}
	fn := functionsFor(envp)
	var vmp uintptr
	var vm *VM
	if fn.getJavaVM(envp, &vmp) == 0 {
		vm = FromPointer(vmp)
	}
	return &Env{ptr: envp, vm: vm, fn: fn}
}

// Pointer returns the raw JNIEnv*.
func (e *Env) Pointer() uintptr { return e.ptr }

func (e *Env) GetVersion() int32 { return e.fn.getVersion(e.ptr) }

func (e *Env) VM() jni.VM {
	if e.vm == nil {
		return nil
	}
	return e.vm
}

func (e *Env) FindClass(name string) jni.Ref {
	return jni.Ref(e.fn.findClass(e.ptr, name))
}

func (e *Env) GetObjectClass(obj jni.Ref) jni.Ref {
	return jni.Ref(e.fn.getObjectClass(e.ptr, uintptr(obj)))
}

func (e *Env) GetSuperclass(cls jni.Ref) jni.Ref {
	return jni.Ref(e.fn.getSuperclass(e.ptr, uintptr(cls)))
}

func (e *Env) IsAssignableFrom(sub, sup jni.Ref) bool {
	return e.fn.isAssignableFrom(e.ptr, uintptr(sub), uintptr(sup)) != 0
}

func (e *Env) IsInstanceOf(obj, cls jni.Ref) bool {
	return e.fn.isInstanceOf(e.ptr, uintptr(obj), uintptr(cls)) != 0
}

func (e *Env) IsSameObject(a, b jni.Ref) bool {
	return e.fn.isSameObject(e.ptr, uintptr(a), uintptr(b)) != 0
}

func (e *Env) NewGlobalRef(r jni.Ref) jni.Ref {
	return jni.Ref(e.fn.newGlobalRef(e.ptr, uintptr(r)))
}

func (e *Env) DeleteGlobalRef(r jni.Ref) { e.fn.deleteGlobalRef(e.ptr, uintptr(r)) }

func (e *Env) NewLocalRef(r jni.Ref) jni.Ref {
	return jni.Ref(e.fn.newLocalRef(e.ptr, uintptr(r)))
}

func (e *Env) DeleteLocalRef(r jni.Ref) { e.fn.deleteLocalRef(e.ptr, uintptr(r)) }

func (e *Env) PushLocalFrame(capacity int32) jni.Status {
	return jni.Status(e.fn.pushLocalFrame(e.ptr, capacity))
}

func (e *Env) PopLocalFrame(result jni.Ref) jni.Ref {
	return jni.Ref(e.fn.popLocalFrame(e.ptr, uintptr(result)))
}

func (e *Env) GetMethodID(cls jni.Ref, name, sig string) jni.MethodID {
	return jni.MethodID(e.fn.getMethodID(e.ptr, uintptr(cls), name, sig))
}

func (e *Env) GetStaticMethodID(cls jni.Ref, name, sig string) jni.MethodID {
	return jni.MethodID(e.fn.getStaticMethodID(e.ptr, uintptr(cls), name, sig))
}

func (e *Env) GetFieldID(cls jni.Ref, name, sig string) jni.FieldID {
	return jni.FieldID(e.fn.getFieldID(e.ptr, uintptr(cls), name, sig))
}

func (e *Env) GetStaticFieldID(cls jni.Ref, name, sig string) jni.FieldID {
	return jni.FieldID(e.fn.getStaticFieldID(e.ptr, uintptr(cls), name, sig))
}

func argsPtr(args []jni.Value) unsafe.Pointer {
	if len(args) == 0 {
		return nil
	}
	return unsafe.Pointer(&args[0])
}

// narrow truncates an integer-class register result to the width of t; the
// upper bits of the register are unspecified for narrow return types.
func narrow(t jni.Type, r uintptr) jni.Value {
	switch t {
	case jni.Void:
		return 0
	case jni.Boolean:
		return jni.BoolValue(uint8(r) != 0)
	case jni.Byte:
		return jni.ByteValue(int8(r))
	case jni.Char:
		return jni.CharValue(uint16(r))
	case jni.Short:
		return jni.ShortValue(int16(r))
	case jni.Int:
		return jni.IntValue(int32(uint32(r)))
	case jni.Long:
		return jni.LongValue(int64(r))
	}
	return jni.RefValue(jni.Ref(r))
}

func (e *Env) CallMethodA(obj jni.Ref, m jni.MethodID, ret jni.Type, args []jni.Value) jni.Value {
	p := argsPtr(args)
	var v jni.Value
	switch ret {
	case jni.Float:
		v = jni.FloatValue(e.fn.callFloat(e.ptr, uintptr(obj), uintptr(m), p))
	case jni.Double:
		v = jni.DoubleValue(e.fn.callDouble(e.ptr, uintptr(obj), uintptr(m), p))
	default:
		v = narrow(ret, e.fn.call[kindOf(ret)](e.ptr, uintptr(obj), uintptr(m), p))
	}
	runtime.KeepAlive(args)
	return v
}

func (e *Env) CallStaticMethodA(cls jni.Ref, m jni.MethodID, ret jni.Type, args []jni.Value) jni.Value {
	p := argsPtr(args)
	var v jni.Value
	switch ret {
	case jni.Float:
		v = jni.FloatValue(e.fn.callStaticFloat(e.ptr, uintptr(cls), uintptr(m), p))
	case jni.Double:
		v = jni.DoubleValue(e.fn.callStaticDouble(e.ptr, uintptr(cls), uintptr(m), p))
	default:
		v = narrow(ret, e.fn.callStatic[kindOf(ret)](e.ptr, uintptr(cls), uintptr(m), p))
	}
	runtime.KeepAlive(args)
	return v
}

func (e *Env) NewObjectA(cls jni.Ref, ctor jni.MethodID, args []jni.Value) jni.Ref {
	r := jni.Ref(e.fn.newObjectA(e.ptr, uintptr(cls), uintptr(ctor), argsPtr(args)))
	runtime.KeepAlive(args)
	return r
}

func (e *Env) GetField(obj jni.Ref, f jni.FieldID, t jni.Type) jni.Value {
	switch t {
	case jni.Float:
		return jni.FloatValue(e.fn.getFloatField(e.ptr, uintptr(obj), uintptr(f)))
	case jni.Double:
		return jni.DoubleValue(e.fn.getDoubleField(e.ptr, uintptr(obj), uintptr(f)))
	}
	return narrow(t, e.fn.getField[kindOf(t)](e.ptr, uintptr(obj), uintptr(f)))
}

func (e *Env) SetField(obj jni.Ref, f jni.FieldID, t jni.Type, v jni.Value) {
	switch t {
	case jni.Float:
		e.fn.setFloatField(e.ptr, uintptr(obj), uintptr(f), v.Float())
	case jni.Double:
		e.fn.setDoubleField(e.ptr, uintptr(obj), uintptr(f), v.Double())
	default:
		e.fn.setField[kindOf(t)](e.ptr, uintptr(obj), uintptr(f), uintptr(v))
	}
}

func (e *Env) GetStaticField(cls jni.Ref, f jni.FieldID, t jni.Type) jni.Value {
	switch t {
	case jni.Float:
		return jni.FloatValue(e.fn.getStaticFloat(e.ptr, uintptr(cls), uintptr(f)))
	case jni.Double:
		return jni.DoubleValue(e.fn.getStaticDouble(e.ptr, uintptr(cls), uintptr(f)))
	}
	return narrow(t, e.fn.getStatic[kindOf(t)](e.ptr, uintptr(cls), uintptr(f)))
}

func (e *Env) SetStaticField(cls jni.Ref, f jni.FieldID, t jni.Type, v jni.Value) {
	switch t {
	case jni.Float:
		e.fn.setStaticFloat(e.ptr, uintptr(cls), uintptr(f), v.Float())
	case jni.Double:
		e.fn.setStaticDouble(e.ptr, uintptr(cls), uintptr(f), v.Double())
	default:
		e.fn.setStatic[kindOf(t)](e.ptr, uintptr(cls), uintptr(f), uintptr(v))
	}
}

func (e *Env) NewString(chars []uint16) jni.Ref {
	var p *uint16
	if len(chars) > 0 {
		p = &chars[0]
	} else {
		// NewString needs a valid pointer even for an empty string.
		var zero uint16
		p = &zero
	}
	r := jni.Ref(e.fn.newString(e.ptr, p, int32(len(chars))))
	runtime.KeepAlive(chars)
	return r
}

func (e *Env) GetStringChars(str jni.Ref) []uint16 {
	n := e.fn.getStringLength(e.ptr, uintptr(str))
	if n <= 0 {
		return []uint16{}
	}
	buf := make([]uint16, n)
	e.fn.getStringRegion(e.ptr, uintptr(str), 0, n, &buf[0])
	return buf
}

func (e *Env) GetArrayLength(arr jni.Ref) int {
	return int(e.fn.getArrayLength(e.ptr, uintptr(arr)))
}

func (e *Env) NewPrimitiveArray(elem jni.Type, length int) jni.Ref {
	return jni.Ref(e.fn.newArray[primOf(elem)](e.ptr, int32(length)))
}

func (e *Env) NewObjectArray(length int, elemClass, initial jni.Ref) jni.Ref {
	return jni.Ref(e.fn.newObjectArray(e.ptr, int32(length), uintptr(elemClass), uintptr(initial)))
}

func (e *Env) GetObjectArrayElement(arr jni.Ref, index int) jni.Ref {
	return jni.Ref(e.fn.getObjectArrayElement(e.ptr, uintptr(arr), int32(index)))
}

func (e *Env) SetObjectArrayElement(arr jni.Ref, index int, v jni.Ref) {
	e.fn.setObjectArrayElement(e.ptr, uintptr(arr), int32(index), uintptr(v))
}

func (e *Env) GetArrayElements(arr jni.Ref, elem jni.Type) unsafe.Pointer {
	return e.fn.getElements[primOf(elem)](e.ptr, uintptr(arr), nil)
}

func (e *Env) ReleaseArrayElements(arr jni.Ref, elem jni.Type, elems unsafe.Pointer, mode jni.ReleaseMode) {
	e.fn.releaseElements[primOf(elem)](e.ptr, uintptr(arr), elems, int32(mode))
}

func (e *Env) SetArrayRegion(arr jni.Ref, elem jni.Type, start, length int, buf unsafe.Pointer) {
	e.fn.setRegion[primOf(elem)](e.ptr, uintptr(arr), int32(start), int32(length), buf)
}

func (e *Env) ExceptionCheck() bool { return e.fn.exceptionCheck(e.ptr) != 0 }

func (e *Env) ExceptionOccurred() jni.Ref { return jni.Ref(e.fn.exceptionOccurred(e.ptr)) }

func (e *Env) ExceptionDescribe() { e.fn.exceptionDescribe(e.ptr) }

func (e *Env) ExceptionClear() { e.fn.exceptionClear(e.ptr) }

func (e *Env) ThrowNew(cls jni.Ref, msg string) jni.Status {
	return jni.Status(e.fn.throwNew(e.ptr, uintptr(cls), msg))
}

func (e *Env) RegisterNatives(cls jni.Ref, methods []jni.NativeMethod) jni.Status {
	table, keep, err := nativeTable(methods)
	if err != nil {
		return jni.Inval
	}
	st := jni.Status(e.fn.registerNatives(e.ptr, uintptr(cls), unsafe.Pointer(&table[0]), int32(len(table))))
	runtime.KeepAlive(keep)
	runtime.KeepAlive(table)
	return st
}

func (e *Env) UnregisterNatives(cls jni.Ref) jni.Status {
	return jni.Status(e.fn.unregisterNatives(e.ptr, uintptr(cls)))
}
