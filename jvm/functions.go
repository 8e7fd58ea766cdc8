//go:build (linux || darwin) && (amd64 || arm64)

package jvm

import (
	"sync"
	"unsafe"

	"github.com/2gis/qtandroidextensions-sub000/jni"
	"github.com/ebitengine/purego"
)

// Slots of JNINativeInterface_ (jni.h, JNI 1.6).
const (
	slotGetVersion            = 4
	slotFindClass             = 6
	slotGetSuperclass         = 10
	slotIsAssignableFrom      = 11
	slotThrowNew              = 14
	slotExceptionOccurred     = 15
	slotExceptionDescribe     = 16
	slotExceptionClear        = 17
	slotPushLocalFrame        = 19
	slotPopLocalFrame         = 20
	slotNewGlobalRef          = 21
	slotDeleteGlobalRef       = 22
	slotDeleteLocalRef        = 23
	slotIsSameObject          = 24
	slotNewLocalRef           = 25
	slotNewObjectA            = 30
	slotGetObjectClass        = 31
	slotIsInstanceOf          = 32
	slotGetMethodID           = 33
	slotCallObjectMethodA     = 36 // Call<Type>MethodA: 36 + 3*kind
	slotGetFieldID            = 94
	slotGetObjectField        = 95  // Get<Type>Field: 95 + kind
	slotSetObjectField        = 104 // Set<Type>Field: 104 + kind
	slotGetStaticMethodID     = 113
	slotCallStaticObjMethodA  = 116 // CallStatic<Type>MethodA: 116 + 3*kind
	slotGetStaticFieldID      = 144
	slotGetStaticObjectField  = 145 // GetStatic<Type>Field: 145 + kind
	slotSetStaticObjectField  = 154 // SetStatic<Type>Field: 154 + kind
	slotNewString             = 163
	slotGetStringLength       = 164
	slotGetArrayLength        = 171
	slotNewObjectArray        = 172
	slotGetObjectArrayElement = 173
	slotSetObjectArrayElement = 174
	slotNewBooleanArray       = 175 // New<Prim>Array: 175 + prim
	slotGetBooleanElements    = 183 // Get<Prim>ArrayElements: 183 + prim
	slotReleaseBooleanElems   = 191 // Release<Prim>ArrayElements: 191 + prim
	slotSetBooleanRegion      = 207 // Set<Prim>ArrayRegion: 207 + prim
	slotRegisterNatives       = 215
	slotUnregisterNatives     = 216
	slotGetJavaVM             = 219
	slotGetStringRegion       = 220
	slotExceptionCheck        = 228
)

// Kinds in JNI table order: Object, Boolean, Byte, Char, Short, Int, Long,
// Float, Double, Void.
const numKinds = 10

func kindOf(t jni.Type) int {
	switch t {
	case jni.Boolean:
		return 1
	case jni.Byte:
		return 2
	case jni.Char:
		return 3
	case jni.Short:
		return 4
	case jni.Int:
		return 5
	case jni.Long:
		return 6
	case jni.Float:
		return 7
	case jni.Double:
		return 8
	case jni.Void:
		return 9
	}
	// Object and array references.
	return 0
}

// primOf indexes the primitive-only rows (arrays), Boolean first.
func primOf(t jni.Type) int { return kindOf(t) - 1 }

type (
	callFn       func(env, target, id uintptr, args unsafe.Pointer) uintptr
	callFloatFn  func(env, target, id uintptr, args unsafe.Pointer) float32
	callDoubleFn func(env, target, id uintptr, args unsafe.Pointer) float64
	getFn        func(env, target, id uintptr) uintptr
	getFloatFn   func(env, target, id uintptr) float32
	getDoubleFn  func(env, target, id uintptr) float64
	setFn        func(env, target, id, v uintptr)
	setFloatFn   func(env, target, id uintptr, v float32)
	setDoubleFn  func(env, target, id uintptr, v float64)
)

// functions holds typed bindings for one JNINativeInterface_ table. Every
// JNIEnv of a VM shares the same table, so it is bound once.
type functions struct {
	getVersion        func(env uintptr) int32
	findClass         func(env uintptr, name string) uintptr
	getSuperclass     func(env, cls uintptr) uintptr
	isAssignableFrom  func(env, sub, sup uintptr) uint8
	throwNew          func(env, cls uintptr, msg string) int32
	exceptionOccurred func(env uintptr) uintptr
	exceptionDescribe func(env uintptr)
	exceptionClear    func(env uintptr)
	exceptionCheck    func(env uintptr) uint8
	pushLocalFrame    func(env uintptr, capacity int32) int32
	popLocalFrame     func(env, result uintptr) uintptr
	newGlobalRef      func(env, ref uintptr) uintptr
	deleteGlobalRef   func(env, ref uintptr)
	deleteLocalRef    func(env, ref uintptr)
	isSameObject      func(env, a, b uintptr) uint8
	newLocalRef       func(env, ref uintptr) uintptr
	newObjectA        func(env, cls, ctor uintptr, args unsafe.Pointer) uintptr
	getObjectClass    func(env, obj uintptr) uintptr
	isInstanceOf      func(env, obj, cls uintptr) uint8
	getMethodID       func(env, cls uintptr, name, sig string) uintptr
	getStaticMethodID func(env, cls uintptr, name, sig string) uintptr
	getFieldID        func(env, cls uintptr, name, sig string) uintptr
	getStaticFieldID  func(env, cls uintptr, name, sig string) uintptr

	call             [numKinds]callFn
	callFloat        callFloatFn
	callDouble       callDoubleFn
	callStatic       [numKinds]callFn
	callStaticFloat  callFloatFn
	callStaticDouble callDoubleFn

	getField          [numKinds - 1]getFn
	getFloatField     getFloatFn
	getDoubleField    getDoubleFn
	setField          [numKinds - 1]setFn
	setFloatField     setFloatFn
	setDoubleField    setDoubleFn
	getStatic         [numKinds - 1]getFn
	getStaticFloat    getFloatFn
	getStaticDouble   getDoubleFn
	setStatic         [numKinds - 1]setFn
	setStaticFloat    setFloatFn
	setStaticDouble   setDoubleFn

	newString       func(env uintptr, chars *uint16, n int32) uintptr
	getStringLength func(env, str uintptr) int32
	getStringRegion func(env, str uintptr, start, n int32, buf *uint16)

	getArrayLength        func(env, arr uintptr) int32
	newObjectArray        func(env uintptr, n int32, cls, initial uintptr) uintptr
	getObjectArrayElement func(env, arr uintptr, i int32) uintptr
	setObjectArrayElement func(env, arr uintptr, i int32, v uintptr)
	newArray              [8]func(env uintptr, n int32) uintptr
	getElements           [8]func(env, arr uintptr, isCopy *uint8) unsafe.Pointer
	releaseElements       [8]func(env, arr uintptr, elems unsafe.Pointer, mode int32)
	setRegion             [8]func(env, arr uintptr, start, n int32, buf unsafe.Pointer)

	registerNatives   func(env, cls uintptr, methods unsafe.Pointer, n int32) int32
	unregisterNatives func(env, cls uintptr) int32
	getJavaVM         func(env uintptr, vm *uintptr) int32
}

var tables sync.Map // table pointer -> *functions

func functionsFor(envp uintptr) *functions {
	table := *(*uintptr)(unsafe.Pointer(envp))
	if f, ok := tables.Load(table); ok {
		return f.(*functions)
	}
	f := bindFunctions(table)
	actual, _ := tables.LoadOrStore(table, f)
	return actual.(*functions)
}

func bindFunctions(table uintptr) *functions {
	f := new(functions)
	reg := func(fptr any, i int) { purego.RegisterFunc(fptr, slot(table, i)) }

	reg(&f.getVersion, slotGetVersion)
	reg(&f.findClass, slotFindClass)
	reg(&f.getSuperclass, slotGetSuperclass)
	reg(&f.isAssignableFrom, slotIsAssignableFrom)
	reg(&f.throwNew, slotThrowNew)
	reg(&f.exceptionOccurred, slotExceptionOccurred)
	reg(&f.exceptionDescribe, slotExceptionDescribe)
	reg(&f.exceptionClear, slotExceptionClear)
	reg(&f.exceptionCheck, slotExceptionCheck)
	reg(&f.pushLocalFrame, slotPushLocalFrame)
	reg(&f.popLocalFrame, slotPopLocalFrame)
	reg(&f.newGlobalRef, slotNewGlobalRef)
	reg(&f.deleteGlobalRef, slotDeleteGlobalRef)
	reg(&f.deleteLocalRef, slotDeleteLocalRef)
	reg(&f.isSameObject, slotIsSameObject)
	reg(&f.newLocalRef, slotNewLocalRef)
	reg(&f.newObjectA, slotNewObjectA)
	reg(&f.getObjectClass, slotGetObjectClass)
	reg(&f.isInstanceOf, slotIsInstanceOf)
	reg(&f.getMethodID, slotGetMethodID)
	reg(&f.getStaticMethodID, slotGetStaticMethodID)
	reg(&f.getFieldID, slotGetFieldID)
	reg(&f.getStaticFieldID, slotGetStaticFieldID)

	// Integer-class results come back in the general purpose register and
	// share one binding shape; float and double need typed bindings.
	for k := 0; k < numKinds; k++ {
		switch k {
		case 7:
			reg(&f.callFloat, slotCallObjectMethodA+3*k)
			reg(&f.callStaticFloat, slotCallStaticObjMethodA+3*k)
		case 8:
			reg(&f.callDouble, slotCallObjectMethodA+3*k)
			reg(&f.callStaticDouble, slotCallStaticObjMethodA+3*k)
		default:
			reg(&f.call[k], slotCallObjectMethodA+3*k)
			reg(&f.callStatic[k], slotCallStaticObjMethodA+3*k)
		}
	}
	for k := 0; k < numKinds-1; k++ {
		switch k {
		case 7:
			reg(&f.getFloatField, slotGetObjectField+k)
			reg(&f.setFloatField, slotSetObjectField+k)
			reg(&f.getStaticFloat, slotGetStaticObjectField+k)
			reg(&f.setStaticFloat, slotSetStaticObjectField+k)
		case 8:
			reg(&f.getDoubleField, slotGetObjectField+k)
			reg(&f.setDoubleField, slotSetObjectField+k)
			reg(&f.getStaticDouble, slotGetStaticObjectField+k)
			reg(&f.setStaticDouble, slotSetStaticObjectField+k)
		default:
			reg(&f.getField[k], slotGetObjectField+k)
			reg(&f.setField[k], slotSetObjectField+k)
			reg(&f.getStatic[k], slotGetStaticObjectField+k)
			reg(&f.setStatic[k], slotSetStaticObjectField+k)
		}
	}

	reg(&f.newString, slotNewString)
	reg(&f.getStringLength, slotGetStringLength)
	reg(&f.getStringRegion, slotGetStringRegion)

	reg(&f.getArrayLength, slotGetArrayLength)
	reg(&f.newObjectArray, slotNewObjectArray)
	reg(&f.getObjectArrayElement, slotGetObjectArrayElement)
	reg(&f.setObjectArrayElement, slotSetObjectArrayElement)
	for p := 0; p < 8; p++ {
		reg(&f.newArray[p], slotNewBooleanArray+p)
		reg(&f.getElements[p], slotGetBooleanElements+p)
		reg(&f.releaseElements[p], slotReleaseBooleanElems+p)
		reg(&f.setRegion[p], slotSetBooleanRegion+p)
	}

	reg(&f.registerNatives, slotRegisterNatives)
	reg(&f.unregisterNatives, slotUnregisterNatives)
	reg(&f.getJavaVM, slotGetJavaVM)
	return f
}
