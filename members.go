package qjni

import (
	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// target is the receiver of a member operation: a class for static members
// or an instance for instance members.
type target struct {
	c      *Class
	obj    jni.Ref
	static bool
}

func (c *Class) statics() target { return target{c: c, static: true} }

// run checks the class handle and then runs fn with the calling thread's
// context. A null handle fails without touching the runtime.
func (t target) run(site string, fn func(env jni.Env) error) error {
	if _, err := t.c.checkedClass(site); err != nil {
		return err
	}
	return withEnv(site, fn)
}

func signatureError(c *Class, name, site string, err error) error {
	return newError(ErrBridge, c.Name(), name, site, "%v", err)
}

// invoke resolves the method, converts args, calls it and turns a pending
// exception into an error. A reference result is a local reference owned by
// the caller; on error it has already been deleted.
func (t target) invoke(env jni.Env, site, name, sig string, args []any) (jni.Value, jni.Type, error) {
	cls, err := t.c.checkedClass(site)
	if err != nil {
		return 0, 0, err
	}
	ret, err := jni.ReturnType(sig)
	if err != nil {
		return 0, 0, signatureError(t.c, name, site, err)
	}

	var mid jni.MethodID
	if t.static {
		mid = env.GetStaticMethodID(cls, name, sig)
	} else {
		mid = env.GetMethodID(cls, name, sig)
	}
	if mid == 0 {
		CheckAndClear(env, false)
		return 0, 0, newError(ErrMethodNotFound, t.c.Name(), name, site, "signature %s", sig)
	}

	ca, err := convertArgs(env, args)
	if err != nil {
		return 0, 0, err
	}
	defer ca.release(env)

	var v jni.Value
	if t.static {
		v = env.CallStaticMethodA(cls, mid, ret, ca.values)
	} else {
		v = env.CallMethodA(t.obj, mid, ret, ca.values)
	}
	if err := javaCallError(env, t.c.Name(), name, site); err != nil {
		// A failed call may still have produced a result.
		if ret.IsReference() && v.Ref() != 0 {
			env.DeleteLocalRef(v.Ref())
		}
		return 0, ret, err
	}
	return v, ret, nil
}

// value calls a method with a primitive or void result.
func (t target) value(site, name, sig string, args []any) (jni.Value, error) {
	var v jni.Value
	err := t.run(site, func(env jni.Env) error {
		var (
			ret jni.Type
			err error
		)
		v, ret, err = t.invoke(env, site, name, sig, args)
		if err == nil && ret.IsReference() {
			// Typed primitive calls never hand out references.
			if v.Ref() != 0 {
				env.DeleteLocalRef(v.Ref())
			}
			v = 0
		}
		return err
	})
	return v, err
}

// str calls a method returning java/lang/String.
func (t target) str(site, name, sig string, args []any) (string, error) {
	var s string
	err := t.run(site, func(env jni.Env) error {
		v, _, err := t.invoke(env, site, name, sig, args)
		if err != nil {
			return err
		}
		s = takeString(env, v.Ref())
		return nil
	})
	return s, err
}

// object calls a method returning an object. A null result is a nil
// *Object and no error.
func (t target) object(site, name, sig string, args []any) (*Object, error) {
	var obj *Object
	err := t.run(site, func(env jni.Env) error {
		v, _, err := t.invoke(env, site, name, sig, args)
		if err != nil || v.Ref() == 0 {
			return err
		}
		obj = wrapObject(env, v.Ref(), true, returnClass(sig))
		return nil
	})
	return obj, err
}

// sig calls a method with an arbitrary signature.
func (t target) sig(site, name, sig string, args []any) (jni.Value, *Object, error) {
	var (
		v   jni.Value
		obj *Object
	)
	err := t.run(site, func(env jni.Env) error {
		var (
			ret jni.Type
			err error
		)
		v, ret, err = t.invoke(env, site, name, sig, args)
		if err != nil || !ret.IsReference() {
			return err
		}
		if v.Ref() != 0 {
			obj = wrapObject(env, v.Ref(), true, returnClass(sig))
		}
		v = 0
		return nil
	})
	return v, obj, err
}

// returnClass extracts the class name of an object return type.
func returnClass(sig string) string {
	for i := len(sig) - 1; i >= 0; i-- {
		if sig[i] == ')' {
			return jni.ClassName(sig[i+1:])
		}
	}
	return ""
}

// fieldID resolves a field and returns its type code.
func (t target) fieldID(env jni.Env, site, name, sig string) (jni.Ref, jni.FieldID, jni.Type, error) {
	cls, err := t.c.checkedClass(site)
	if err != nil {
		return 0, 0, 0, err
	}
	if sig == "" {
		return 0, 0, 0, newError(ErrBridge, t.c.Name(), name, site, "empty field signature")
	}
	var fid jni.FieldID
	if t.static {
		fid = env.GetStaticFieldID(cls, name, sig)
	} else {
		fid = env.GetFieldID(cls, name, sig)
	}
	if fid == 0 {
		CheckAndClear(env, false)
		return 0, 0, 0, newError(ErrFieldNotFound, t.c.Name(), name, site, "signature %s", sig)
	}
	return cls, fid, jni.Type(sig[0]), nil
}

// getField reads a field. A reference result is a local reference owned by
// the caller.
func (t target) getField(env jni.Env, site, name, sig string) (jni.Value, error) {
	cls, fid, typ, err := t.fieldID(env, site, name, sig)
	if err != nil {
		return 0, err
	}
	var v jni.Value
	if t.static {
		v = env.GetStaticField(cls, fid, typ)
	} else {
		v = env.GetField(t.obj, fid, typ)
	}
	if err := javaCallError(env, t.c.Name(), name, site); err != nil {
		return 0, err
	}
	return v, nil
}

func (t target) field(site, name, sig string) (jni.Value, error) {
	var v jni.Value
	err := t.run(site, func(env jni.Env) error {
		var err error
		v, err = t.getField(env, site, name, sig)
		return err
	})
	return v, err
}

func (t target) stringField(site, name string) (string, error) {
	var s string
	err := t.run(site, func(env jni.Env) error {
		v, err := t.getField(env, site, name, "Ljava/lang/String;")
		if err != nil {
			return err
		}
		s = takeString(env, v.Ref())
		return nil
	})
	return s, err
}

func (t target) objectField(site, name, typeName string) (*Object, error) {
	var obj *Object
	sig := jni.ObjectType(typeName)
	err := t.run(site, func(env jni.Env) error {
		v, err := t.getField(env, site, name, sig)
		if err != nil || v.Ref() == 0 {
			return err
		}
		obj = wrapObject(env, v.Ref(), true, jni.ClassName(sig))
		return nil
	})
	return obj, err
}

// setField writes a field. value is converted like a call argument.
func (t target) setField(site, name, sig string, value any) error {
	return t.run(site, func(env jni.Env) error {
		cls, fid, typ, err := t.fieldID(env, site, name, sig)
		if err != nil {
			return err
		}
		ca, err := convertArgs(env, []any{value})
		if err != nil {
			return err
		}
		defer ca.release(env)
		if t.static {
			env.SetStaticField(cls, fid, typ, ca.values[0])
		} else {
			env.SetField(t.obj, fid, typ, ca.values[0])
		}
		return javaCallError(env, t.c.Name(), name, site)
	})
}
