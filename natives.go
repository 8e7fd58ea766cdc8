package qjni

import (
	"fmt"
	"reflect"

	"github.com/2gis/qtandroidextensions-sub000/internal/handles"
	"github.com/2gis/qtandroidextensions-sub000/jni"
	"go.uber.org/zap"
)

// NativeMethod binds a Go function to a managed method declared native.
//
// Func takes (jni.Env, jni.Ref) followed by the method's parameters, using
// the Go types listed on jni.NativeMethod, and returns the method's result
// if it is not void. It may return an additional trailing error: a non-nil
// error, like a panic, is thrown to the managed caller as a
// java/lang/RuntimeException.
type NativeMethod struct {
	Name      string
	Signature string
	Func      any
}

var (
	envType   = reflect.TypeOf((*jni.Env)(nil)).Elem()
	refType   = reflect.TypeOf(jni.Ref(0))
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// RegisterNativeMethods binds methods to the class. It returns false when
// the runtime reports a non-zero status, and an error when a managed
// exception was raised or a Func has the wrong shape.
func (c *Class) RegisterNativeMethods(methods []NativeMethod) (bool, error) {
	const site = "RegisterNativeMethods"
	cls, err := c.checkedClass(site)
	if err != nil {
		return false, err
	}
	table := make([]jni.NativeMethod, len(methods))
	for i, m := range methods {
		fn, err := adaptNative(c.Name(), m)
		if err != nil {
			return false, newError(ErrBridge, c.Name(), m.Name, site, "%v", err)
		}
		table[i] = jni.NativeMethod{Name: m.Name, Signature: m.Signature, Func: fn}
	}
	ok := false
	err = withEnv(site, func(env jni.Env) error {
		st := env.RegisterNatives(cls, table)
		if err := javaCallError(env, c.Name(), "", site); err != nil {
			return err
		}
		if st != jni.OK {
			log().Warn("RegisterNatives failed", zap.String("class", c.Name()), zap.Stringer("status", st))
			return nil
		}
		ok = true
		return nil
	})
	if ok {
		log().Debug("native methods registered", zap.String("class", c.Name()), zap.Int("count", len(methods)))
	}
	return ok, err
}

// UnregisterNativeMethods removes every native binding of the class.
func (c *Class) UnregisterNativeMethods() (bool, error) {
	const site = "UnregisterNativeMethods"
	cls, err := c.checkedClass(site)
	if err != nil {
		return false, err
	}
	ok := false
	err = withEnv(site, func(env jni.Env) error {
		st := env.UnregisterNatives(cls)
		if err := javaCallError(env, c.Name(), "", site); err != nil {
			return err
		}
		ok = st == jni.OK
		return nil
	})
	return ok, err
}

// adaptNative wraps m.Func into the shape the runtime calls: the same
// parameters and at most one result, never panicking into the runtime.
func adaptNative(class string, m NativeMethod) (any, error) {
	fv := reflect.ValueOf(m.Func)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("native func is %T, not a func", m.Func)
	}
	ft := fv.Type()
	if ft.IsVariadic() || ft.NumIn() < 2 || ft.In(0) != envType || ft.In(1) != refType {
		return nil, fmt.Errorf("native func must start with (jni.Env, jni.Ref), got %s", ft)
	}

	outs := make([]reflect.Type, 0, 1)
	withErr := false
	for i := 0; i < ft.NumOut(); i++ {
		if i == ft.NumOut()-1 && ft.Out(i) == errorType {
			withErr = true
			continue
		}
		outs = append(outs, ft.Out(i))
	}
	if len(outs) > 1 {
		return nil, fmt.Errorf("native func returns %d values", len(outs))
	}
	ins := make([]reflect.Type, ft.NumIn())
	for i := range ins {
		ins[i] = ft.In(i)
	}
	contract := reflect.FuncOf(ins, outs, false)
	member := m.Name
	return reflect.MakeFunc(contract, func(in []reflect.Value) (results []reflect.Value) {
		env := in[0].Interface().(jni.Env)
		results = make([]reflect.Value, len(outs))
		for i, t := range outs {
			results[i] = reflect.Zero(t)
		}
		defer func() {
			if r := recover(); r != nil {
				throwRuntime(env, class, member, fmt.Sprintf("panic: %v", r))
				for i, t := range outs {
					results[i] = reflect.Zero(t)
				}
			}
		}()
		out := fv.Call(in)
		if withErr {
			if err, _ := out[len(out)-1].Interface().(error); err != nil {
				throwRuntime(env, class, member, err.Error())
				return results
			}
		}
		copy(results, out[:len(outs)])
		return results
	}).Interface(), nil
}

// throwRuntime raises a java/lang/RuntimeException unless an exception is
// already pending, in which case that one reaches the managed caller.
func throwRuntime(env jni.Env, class, member, msg string) {
	log().Warn("native method failed",
		zap.String("class", class),
		zap.String("member", member),
		zap.String("error", msg))
	if env.ExceptionCheck() {
		return
	}
	cls := env.FindClass("java/lang/RuntimeException")
	if cls == 0 {
		return
	}
	defer env.DeleteLocalRef(cls)
	env.ThrowNew(cls, msg)
}

// NewNativeHandle registers v and returns a non-zero token for it. Managed
// objects store the token in a long field and pass it back to native
// methods, which recover v with LookupNativeHandle.
func NewNativeHandle(v any) int64 { return handles.Register(v) }

// LookupNativeHandle returns the value registered under h.
func LookupNativeHandle(h int64) (any, bool) { return handles.Lookup(h) }

// ReleaseNativeHandle forgets h. It reports whether h was registered.
func ReleaseNativeHandle(h int64) bool { return handles.Release(h) }

// NativeHandleField reads the token stored in the long field of this and
// returns the registered value. It is meant for native methods, which
// receive env and this from the runtime.
func NativeHandleField(env jni.Env, this jni.Ref, field string) (any, error) {
	const site = "NativeHandleField"
	if this == 0 {
		return nil, objectIsNull("", field, site)
	}
	cls := env.GetObjectClass(this)
	if cls == 0 {
		CheckAndClear(env, false)
		return nil, classNotSet("", site)
	}
	defer env.DeleteLocalRef(cls)
	fid := env.GetFieldID(cls, field, "J")
	if fid == 0 {
		CheckAndClear(env, false)
		return nil, newError(ErrFieldNotFound, className(env, cls), field, site, "signature J")
	}
	h := env.GetField(this, fid, jni.Long).Long()
	if err := javaCallError(env, "", field, site); err != nil {
		return nil, err
	}
	v, ok := LookupNativeHandle(h)
	if !ok {
		return nil, newError(ErrBridge, "", field, site, "no native handle %d", h)
	}
	return v, nil
}
