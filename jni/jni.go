// Package jni describes the slice of the Java Native Interface that the qjni
// bridge consumes.
//
// The package holds no state. It defines opaque reference types, the jvalue
// union, status codes and the VM/Env interfaces implemented by the purego
// backend in package jvm and by the in-memory runtime in package jnitest.
package jni

import (
	"fmt"
	"math"
	"unsafe"
)

// Ref is an opaque jobject. The zero Ref is null.
type Ref uintptr

// IsNull reports whether r is the null reference.
func (r Ref) IsNull() bool { return r == 0 }

// MethodID is an opaque jmethodID.
type MethodID uintptr

// FieldID is an opaque jfieldID.
type FieldID uintptr

// Supported JNI versions.
const (
	Version1_2 int32 = 0x00010002
	Version1_4 int32 = 0x00010004
	Version1_6 int32 = 0x00010006
	Version1_8 int32 = 0x00010008
)

// Status is a JNI return code (jint).
type Status int32

// Status codes from jni.h.
const (
	OK        Status = 0
	ErrStatus Status = -1
	Detached  Status = -2
	BadVer    Status = -3
	NoMem     Status = -4
	Exists    Status = -5
	Inval     Status = -6
)

func (s Status) String() string {
	switch s {
	case OK:
		return "JNI_OK"
	case ErrStatus:
		return "JNI_ERR"
	case Detached:
		return "JNI_EDETACHED"
	case BadVer:
		return "JNI_EVERSION"
	case NoMem:
		return "JNI_ENOMEM"
	case Exists:
		return "JNI_EEXIST"
	case Inval:
		return "JNI_EINVAL"
	default:
		return fmt.Sprintf("JNI_STATUS(%d)", int32(s))
	}
}

// ReleaseMode is the mode argument of Release<Type>ArrayElements.
type ReleaseMode int32

const (
	// CopyBack copies the elements back and frees the buffer.
	CopyBack ReleaseMode = 0
	// Commit copies back without freeing the buffer.
	Commit ReleaseMode = 1
	// Abort frees the buffer without copying back.
	Abort ReleaseMode = 2
)

// Type is a single-character signature code.
type Type byte

// Signature type codes.
const (
	Void    Type = 'V'
	Boolean Type = 'Z'
	Byte    Type = 'B'
	Char    Type = 'C'
	Short   Type = 'S'
	Int     Type = 'I'
	Long    Type = 'J'
	Float   Type = 'F'
	Double  Type = 'D'
	Object  Type = 'L'
	Array   Type = '['
)

// IsPrimitive reports whether t names a primitive, non-void type.
func (t Type) IsPrimitive() bool {
	switch t {
	case Boolean, Byte, Char, Short, Int, Long, Float, Double:
		return true
	}
	return false
}

// IsReference reports whether values of t are object references.
func (t Type) IsReference() bool { return t == Object || t == Array }

// Size returns the element size in bytes of a primitive type.
func (t Type) Size() int {
	switch t {
	case Boolean, Byte:
		return 1
	case Char, Short:
		return 2
	case Int, Float:
		return 4
	case Long, Double:
		return 8
	}
	return int(unsafe.Sizeof(Ref(0)))
}

func (t Type) String() string {
	switch t {
	case Void:
		return "void"
	case Boolean:
		return "boolean"
	case Byte:
		return "byte"
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Object:
		return "object"
	case Array:
		return "array"
	}
	return fmt.Sprintf("Type(%q)", byte(t))
}

// Value is a jvalue: 64 bits holding any primitive or a reference. Narrow
// values live in the low-order bytes, which is the layout of the C union on
// the little-endian targets this module supports.
type Value uint64

// BoolValue returns a jboolean value.
func BoolValue(b bool) Value {
	if b {
		return 1
	}
	return 0
}

// ByteValue returns a jbyte value.
func ByteValue(v int8) Value { return Value(uint8(v)) }

// CharValue returns a jchar value.
func CharValue(v uint16) Value { return Value(v) }

// ShortValue returns a jshort value.
func ShortValue(v int16) Value { return Value(uint16(v)) }

// IntValue returns a jint value.
func IntValue(v int32) Value { return Value(uint32(v)) }

// LongValue returns a jlong value.
func LongValue(v int64) Value { return Value(v) }

// FloatValue returns a jfloat value.
func FloatValue(v float32) Value { return Value(math.Float32bits(v)) }

// DoubleValue returns a jdouble value.
func DoubleValue(v float64) Value { return Value(math.Float64bits(v)) }

// RefValue returns a jobject value.
func RefValue(r Ref) Value { return Value(r) }

func (v Value) Bool() bool { return uint8(v) != 0 }
func (v Value) Byte() int8 { return int8(uint8(v)) }
func (v Value) Char() uint16 { return uint16(v) }
func (v Value) Short() int16 { return int16(uint16(v)) }
func (v Value) Int() int32 { return int32(uint32(v)) }
func (v Value) Long() int64 { return int64(v) }
func (v Value) Float() float32 { return math.Float32frombits(uint32(v)) }
func (v Value) Double() float64 { return math.Float64frombits(uint64(v)) }
func (v Value) Ref() Ref { return Ref(uintptr(v)) }
func (v Value) IsZero() bool { return v == 0 }
func (v Value) Raw() uint64 { return uint64(v) }
func (v Value) GoString() string { return fmt.Sprintf("jni.Value(%#x)", uint64(v)) }

// NativeMethod is one entry of a RegisterNatives table.
//
// Func must be a Go func whose first two parameters are (Env, Ref): the
// calling thread's environment and the receiver (instance or class). The
// remaining parameters and the result mirror Signature using the Go types of
// the Value accessors (bool, int8, uint16, int16, int32, int64, float32,
// float64, Ref).
type NativeMethod struct {
	Name      string
	Signature string
	Func      any
}

// VM is the invocation interface of a Java virtual machine (JavaVM*).
// Its methods are safe for concurrent use.
type VM interface {
	// GetEnv returns the environment of the calling OS thread, or Detached
	// when the thread is not attached.
	GetEnv(version int32) (Env, Status)
	// AttachCurrentThread attaches the calling OS thread. Attaching an
	// attached thread returns its existing environment.
	AttachCurrentThread() (Env, Status)
	// DetachCurrentThread detaches the calling OS thread.
	DetachCurrentThread() Status
}

// Env is the per-thread native interface (JNIEnv*). An Env must only be used
// on the OS thread it was obtained on.
type Env interface {
	GetVersion() int32
	VM() VM

	FindClass(name string) Ref
	GetObjectClass(obj Ref) Ref
	GetSuperclass(cls Ref) Ref
	IsAssignableFrom(sub, sup Ref) bool
	IsInstanceOf(obj, cls Ref) bool
	IsSameObject(a, b Ref) bool

	NewGlobalRef(r Ref) Ref
	DeleteGlobalRef(r Ref)
	NewLocalRef(r Ref) Ref
	DeleteLocalRef(r Ref)
	PushLocalFrame(capacity int32) Status
	PopLocalFrame(result Ref) Ref

	GetMethodID(cls Ref, name, sig string) MethodID
	GetStaticMethodID(cls Ref, name, sig string) MethodID
	GetFieldID(cls Ref, name, sig string) FieldID
	GetStaticFieldID(cls Ref, name, sig string) FieldID

	// CallMethodA invokes an instance method whose return type is ret.
	CallMethodA(obj Ref, m MethodID, ret Type, args []Value) Value
	// CallStaticMethodA invokes a static method whose return type is ret.
	CallStaticMethodA(cls Ref, m MethodID, ret Type, args []Value) Value
	NewObjectA(cls Ref, ctor MethodID, args []Value) Ref

	GetField(obj Ref, f FieldID, t Type) Value
	SetField(obj Ref, f FieldID, t Type, v Value)
	GetStaticField(cls Ref, f FieldID, t Type) Value
	SetStaticField(cls Ref, f FieldID, t Type, v Value)

	// NewString creates a java/lang/String from UTF-16 code units.
	NewString(chars []uint16) Ref
	// GetStringChars copies the UTF-16 code units of a string.
	GetStringChars(str Ref) []uint16

	GetArrayLength(arr Ref) int
	NewPrimitiveArray(elem Type, length int) Ref
	NewObjectArray(length int, elemClass, initial Ref) Ref
	GetObjectArrayElement(arr Ref, index int) Ref
	SetObjectArrayElement(arr Ref, index int, v Ref)
	// GetArrayElements pins or copies the elements of a primitive array.
	// The returned buffer must be handed back to ReleaseArrayElements.
	GetArrayElements(arr Ref, elem Type) unsafe.Pointer
	ReleaseArrayElements(arr Ref, elem Type, elems unsafe.Pointer, mode ReleaseMode)
	SetArrayRegion(arr Ref, elem Type, start, length int, buf unsafe.Pointer)

	ExceptionCheck() bool
	ExceptionOccurred() Ref
	ExceptionDescribe()
	ExceptionClear()
	ThrowNew(cls Ref, msg string) Status

	RegisterNatives(cls Ref, methods []NativeMethod) Status
	UnregisterNatives(cls Ref) Status
}
