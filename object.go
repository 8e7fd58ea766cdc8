package qjni

import (
	"runtime"

	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// Object owns global references to a managed object and to its class. The
// zero Object and a nil *Object are null handles. An Object is not safe for
// concurrent use.
//
// The class reference may be null for a non-null object: runtimes do not
// always report a class for arrays. Instance calls on such an object fail
// with ErrClassNotSet; array conversions still work.
type Object struct {
	Class
	obj            jni.Ref
	classMayBeNull bool
}

// NewObject creates an instance of className with the constructor taking
// params, e.g. NewObject("java/lang/StringBuilder", "Ljava/lang/String;", "x").
func NewObject(className, params string, args ...any) (*Object, error) {
	var obj *Object
	err := withEnv("NewObject", func(env jni.Env) error {
		cls, ok := defaultCache.resolve(env, jni.ClassName(className))
		if !ok {
			return newError(ErrClassNotFound, jni.ClassName(className), "<init>", "NewObject", "")
		}
		var err error
		obj, err = construct(env, cls, jni.ClassName(className), params, args, "NewObject")
		return err
	})
	return obj, err
}

// NewObjectOf creates an instance of c with the constructor taking params.
func NewObjectOf(c *Class, params string, args ...any) (*Object, error) {
	cls, err := c.checkedClass("NewObjectOf")
	if err != nil {
		return nil, err
	}
	var obj *Object
	err = withEnv("NewObjectOf", func(env jni.Env) error {
		var err error
		obj, err = construct(env, cls, c.Name(), params, args, "NewObjectOf")
		return err
	})
	return obj, err
}

func construct(env jni.Env, cls jni.Ref, name, params string, args []any, site string) (*Object, error) {
	sig := jni.MethodSignature(params, "V")
	ctor := env.GetMethodID(cls, "<init>", sig)
	if ctor == 0 {
		CheckAndClear(env, false)
		return nil, newError(ErrMethodNotFound, name, "<init>", site, "signature %s", sig)
	}
	ca, err := convertArgs(env, args)
	if err != nil {
		return nil, err
	}
	defer ca.release(env)
	r := env.NewObjectA(cls, ctor, ca.values)
	if err := javaCallError(env, name, "<init>", site); err != nil {
		if r != 0 {
			env.DeleteLocalRef(r)
		}
		return nil, err
	}
	if r == 0 {
		return nil, newError(ErrJavaCall, name, "<init>", site, "constructor returned null")
	}
	o := &Object{
		Class: Class{vm: env.VM(), class: env.NewGlobalRef(cls), name: name},
		obj:   env.NewGlobalRef(r),
	}
	env.DeleteLocalRef(r)
	runtime.SetFinalizer(o, (*Object).finalize)
	return o, nil
}

// WrapObject returns a handle owning a new global reference to ref and to
// its runtime class. With takeOwnership the local reference ref is deleted
// once promoted. A null ref yields a null handle.
func WrapObject(env jni.Env, ref jni.Ref, takeOwnership bool) *Object {
	return wrapObject(env, ref, takeOwnership, "")
}

func wrapObject(env jni.Env, ref jni.Ref, takeOwnership bool, name string) *Object {
	o := &Object{Class: Class{vm: env.VM(), name: name}}
	if ref == 0 {
		return o
	}
	o.obj = env.NewGlobalRef(ref)
	if cls := env.GetObjectClass(ref); cls != 0 {
		o.class = env.NewGlobalRef(cls)
		env.DeleteLocalRef(cls)
	} else {
		CheckAndClear(env, false)
		o.classMayBeNull = true
	}
	if takeOwnership {
		env.DeleteLocalRef(ref)
	}
	runtime.SetFinalizer(o, (*Object).finalize)
	return o
}

// Ref returns the global object reference, still owned by o.
func (o *Object) Ref() jni.Ref {
	if o == nil {
		return 0
	}
	return o.obj
}

// IsNull reports whether the handle holds no object.
func (o *Object) IsNull() bool { return o.Ref() == 0 }

// ClassMayBeNull reports whether the object's class could not be retrieved.
func (o *Object) ClassMayBeNull() bool { return o != nil && o.classMayBeNull }

func (o *Object) checkedInstance(site, member string) (jni.Ref, error) {
	if o.Ref() == 0 {
		var name string
		if o != nil {
			name = o.name
		}
		return 0, objectIsNull(name, member, site)
	}
	return o.obj, nil
}

// instance returns the call target after checking the handle. It never
// calls into the runtime.
func (o *Object) instance(site, member string) (target, error) {
	obj, err := o.checkedInstance(site, member)
	if err != nil {
		return target{}, err
	}
	return target{c: &o.Class, obj: obj}, nil
}

// Clone returns a handle owning new global references to the same object
// and class.
func (o *Object) Clone() (*Object, error) {
	if o.IsNull() {
		return &Object{}, nil
	}
	var out *Object
	err := withEnv("Object.Clone", func(env jni.Env) error {
		out = &Object{
			Class:          Class{vm: o.vm, name: o.name},
			obj:            env.NewGlobalRef(o.obj),
			classMayBeNull: o.classMayBeNull,
		}
		if o.class != 0 {
			out.class = env.NewGlobalRef(o.class)
		}
		runtime.SetFinalizer(out, (*Object).finalize)
		return nil
	})
	return out, err
}

// Move transfers both references to a new handle and leaves o null.
func (o *Object) Move() *Object {
	out := &Object{Class: Class{vm: o.vm, class: o.class, name: o.name}, obj: o.obj, classMayBeNull: o.classMayBeNull}
	o.class, o.obj = 0, 0
	runtime.SetFinalizer(out, (*Object).finalize)
	return out
}

// Detach gives the global object reference to the caller, who must delete
// it, and releases the class reference. The handle becomes null.
func (o *Object) Detach() (jni.Ref, error) {
	r := o.Ref()
	if r == 0 {
		return 0, nil
	}
	o.obj = 0
	return r, o.Close()
}

// DetachLocal returns a new local reference to the object and releases the
// handle. It is meant for returning objects from native methods, where env
// is the method's env.
func (o *Object) DetachLocal(env jni.Env) jni.Ref {
	if o.IsNull() {
		return 0
	}
	local := env.NewLocalRef(o.obj)
	env.DeleteGlobalRef(o.obj)
	if o.class != 0 {
		env.DeleteGlobalRef(o.class)
	}
	o.obj, o.class = 0, 0
	runtime.SetFinalizer(o, nil)
	return local
}

// Close deletes both global references. It is idempotent.
func (o *Object) Close() error {
	if o == nil || (o.obj == 0 && o.class == 0) {
		return nil
	}
	obj, cls := o.obj, o.class
	o.obj, o.class = 0, 0
	runtime.SetFinalizer(o, nil)
	return withEnv("Object.Close", func(env jni.Env) error {
		if cls != 0 {
			env.DeleteGlobalRef(cls)
		}
		if obj != 0 {
			env.DeleteGlobalRef(obj)
		}
		return nil
	})
}

func (o *Object) finalize() {
	releaseLater(o.vm, o.class, o.obj)
	o.class, o.obj = 0, 0
}

// IsInstanceOf reports whether the object is an instance of c.
func (o *Object) IsInstanceOf(c *Class) (bool, error) {
	obj, err := o.checkedInstance("IsInstanceOf", "")
	if err != nil {
		return false, err
	}
	cls, err := c.checkedClass("IsInstanceOf")
	if err != nil {
		return false, err
	}
	var ok bool
	err = withEnv("IsInstanceOf", func(env jni.Env) error {
		ok = env.IsInstanceOf(obj, cls)
		return javaCallError(env, o.name, "", "IsInstanceOf")
	})
	return ok, err
}

// IsSameObject reports whether both handles refer to the same object. Two
// null handles are the same.
func (o *Object) IsSameObject(other *Object) (bool, error) {
	if o.IsNull() || other.IsNull() {
		return o.IsNull() && other.IsNull(), nil
	}
	var same bool
	err := withEnv("IsSameObject", func(env jni.Env) error {
		same = env.IsSameObject(o.obj, other.obj)
		return nil
	})
	return same, err
}

// ToString calls the object's toString method.
func (o *Object) ToString() (string, error) {
	return o.CallString("toString")
}

// ClassName returns the slash-separated name of the object's runtime class,
// as reported by getClass().getName().
func (o *Object) ClassName() (string, error) {
	t, err := o.instance("ClassName", "getClass")
	if err != nil {
		return "", err
	}
	var name string
	err = withEnv("ClassName", func(env jni.Env) error {
		objCls := env.FindClass("java/lang/Object")
		if objCls == 0 {
			CheckAndClear(env, false)
			return newError(ErrClassNotFound, "java/lang/Object", "", "ClassName", "")
		}
		defer env.DeleteLocalRef(objCls)
		getClass := env.GetMethodID(objCls, "getClass", "()Ljava/lang/Class;")
		if getClass == 0 {
			CheckAndClear(env, false)
			return newError(ErrMethodNotFound, "java/lang/Object", "getClass", "ClassName", "")
		}
		cls := env.CallMethodA(t.obj, getClass, jni.Object, nil).Ref()
		if err := javaCallError(env, o.name, "getClass", "ClassName"); err != nil {
			return err
		}
		defer env.DeleteLocalRef(cls)
		name = className(env, cls)
		return nil
	})
	return name, err
}
