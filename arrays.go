package qjni

import (
	"unsafe"

	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// Primitive is the set of Go element types that have a managed primitive
// array counterpart: bool is boolean[], int8 and uint8 are byte[], uint16 is
// char[], int16 is short[], int32 is int[], int64 is long[], float32 is
// float[] and float64 is double[].
type Primitive interface {
	bool | int8 | uint8 | uint16 | int16 | int32 | int64 | float32 | float64
}

func elemType[T Primitive]() jni.Type {
	var zero T
	switch any(zero).(type) {
	case bool:
		return jni.Boolean
	case int8, uint8:
		return jni.Byte
	case uint16:
		return jni.Char
	case int16:
		return jni.Short
	case int32:
		return jni.Int
	case int64:
		return jni.Long
	case float32:
		return jni.Float
	default:
		return jni.Double
	}
}

// ArrayLength returns the length of an array object.
func (o *Object) ArrayLength() (int, error) {
	ref, err := o.checkedInstance("ArrayLength", "")
	if err != nil {
		return 0, err
	}
	var n int
	err = withEnv("ArrayLength", func(env jni.Env) error {
		n = env.GetArrayLength(ref)
		return javaCallError(env, o.name, "", "ArrayLength")
	})
	return n, err
}

// PrimitiveArray copies the elements of a managed primitive array. T must
// match the array's element type. The conversion is best-effort: a null
// array or a managed exception yields an empty slice, and the exception is
// cleared and logged. The error reports a missing execution context or an
// array whose known class does not hold T.
func PrimitiveArray[T Primitive](arr *Object) ([]T, error) {
	const site = "PrimitiveArray"
	if arr.IsNull() {
		return []T{}, nil
	}
	ref, elem := arr.obj, elemType[T]()
	want := "[" + string(rune(elem))
	out := []T{}
	err := withEnv(site, func(env jni.Env) error {
		if name := arr.arrayName(env); name != "" && name != want {
			return newError(ErrBridge, name, "", site, "array is not %s", want)
		}
		n := env.GetArrayLength(ref)
		if swallowException(env, site) || n == 0 {
			return nil
		}
		p := env.GetArrayElements(ref, elem)
		if p == nil {
			swallowException(env, site)
			return nil
		}
		buf := make([]T, n)
		size := n * elem.Size()
		dst := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(buf))), size)
		copy(dst, unsafe.Slice((*byte)(p), size))
		env.ReleaseArrayElements(ref, elem, p, jni.Abort)
		if elem == jni.Boolean {
			// Go bools must be 0 or 1.
			for i, b := range dst {
				if b != 0 {
					dst[i] = 1
				}
			}
		}
		out = buf
		return nil
	})
	return out, err
}

// arrayName returns the class name of the array, "" when the runtime
// cannot report it.
func (o *Object) arrayName(env jni.Env) string {
	if o.name != "" {
		return o.name
	}
	if o.class == 0 {
		return ""
	}
	return className(env, o.class)
}

// NewPrimitiveArray creates a managed primitive array holding a copy of vals.
func NewPrimitiveArray[T Primitive](vals []T) (*Object, error) {
	const site = "NewPrimitiveArray"
	elem := elemType[T]()
	name := "[" + string(rune(elem))
	var obj *Object
	err := withEnv(site, func(env jni.Env) error {
		r := env.NewPrimitiveArray(elem, len(vals))
		if err := javaCallError(env, name, "", site); err != nil {
			return err
		}
		if r == 0 {
			return newError(ErrBridge, name, "", site, "array allocation failed")
		}
		if len(vals) > 0 {
			env.SetArrayRegion(r, elem, 0, len(vals), unsafe.Pointer(unsafe.SliceData(vals)))
			if err := javaCallError(env, name, "", site); err != nil {
				env.DeleteLocalRef(r)
				return err
			}
		}
		obj = wrapObject(env, r, true, name)
		return nil
	})
	return obj, err
}

// StringArray converts a managed String[] to Go strings. Null elements
// become "". Like PrimitiveArray the conversion is best-effort.
func (o *Object) StringArray() ([]string, error) {
	const site = "StringArray"
	if o.IsNull() {
		return []string{}, nil
	}
	ref := o.obj
	out := []string{}
	err := withEnv(site, func(env jni.Env) error {
		n := env.GetArrayLength(ref)
		if swallowException(env, site) {
			return nil
		}
		buf := make([]string, n)
		for i := range buf {
			e := env.GetObjectArrayElement(ref, i)
			if swallowException(env, site) {
				return nil
			}
			buf[i] = takeString(env, e)
		}
		out = buf
		return nil
	})
	return out, err
}

// ObjectArray returns handles for the elements of a managed object array.
// Null elements are nil. The caller owns the handles. Like PrimitiveArray
// the conversion is best-effort.
func (o *Object) ObjectArray() ([]*Object, error) {
	const site = "ObjectArray"
	if o.IsNull() {
		return []*Object{}, nil
	}
	ref := o.obj
	out := []*Object{}
	err := withEnv(site, func(env jni.Env) error {
		n := env.GetArrayLength(ref)
		if swallowException(env, site) {
			return nil
		}
		buf := make([]*Object, n)
		for i := range buf {
			e := env.GetObjectArrayElement(ref, i)
			if swallowException(env, site) {
				closeAll(buf)
				return nil
			}
			if e != 0 {
				buf[i] = wrapObject(env, e, true, "")
			}
		}
		out = buf
		return nil
	})
	return out, err
}

func closeAll(objs []*Object) {
	for _, o := range objs {
		_ = o.Close()
	}
}

// NewStringArray creates a managed String[] from vals.
func NewStringArray(vals []string) (*Object, error) {
	const site = "NewStringArray"
	var obj *Object
	err := withEnv(site, func(env jni.Env) error {
		r, err := newObjectArray(env, "java/lang/String", len(vals), site)
		if err != nil {
			return err
		}
		for i, s := range vals {
			e := newJString(env, s)
			env.SetObjectArrayElement(r, i, e)
			env.DeleteLocalRef(e)
			if err := javaCallError(env, "java/lang/String", "", site); err != nil {
				env.DeleteLocalRef(r)
				return err
			}
		}
		obj = wrapObject(env, r, true, "[Ljava/lang/String;")
		return nil
	})
	return obj, err
}

// NewObjectArray creates a managed array of elemClass holding vals. Nil or
// null handles become null elements.
func NewObjectArray(elemClass string, vals []*Object) (*Object, error) {
	const site = "NewObjectArray"
	name := jni.ClassName(elemClass)
	var obj *Object
	err := withEnv(site, func(env jni.Env) error {
		r, err := newObjectArray(env, name, len(vals), site)
		if err != nil {
			return err
		}
		for i, v := range vals {
			if v.IsNull() {
				continue
			}
			env.SetObjectArrayElement(r, i, v.Ref())
			if err := javaCallError(env, name, "", site); err != nil {
				env.DeleteLocalRef(r)
				return err
			}
		}
		obj = wrapObject(env, r, true, "["+jni.ObjectType(name))
		return nil
	})
	return obj, err
}

func newObjectArray(env jni.Env, elemClass string, n int, site string) (jni.Ref, error) {
	cls, ok := defaultCache.resolve(env, elemClass)
	if !ok {
		return 0, newError(ErrClassNotFound, elemClass, "", site, "")
	}
	r := env.NewObjectArray(n, cls, 0)
	if err := javaCallError(env, elemClass, "", site); err != nil {
		return 0, err
	}
	if r == 0 {
		return 0, newError(ErrBridge, elemClass, "", site, "array allocation failed")
	}
	return r, nil
}
