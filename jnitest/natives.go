package jnitest

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/2gis/qtandroidextensions-sub000/jni"
)

var (
	envType = reflect.TypeOf((*jni.Env)(nil)).Elem()
	refType = reflect.TypeOf(jni.Ref(0))
)

// checkNativeFunc verifies that fn has the shape jni.NativeMethod documents
// for m.
func checkNativeFunc(m *Method, fn any) error {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return fmt.Errorf("native func is %T, not a func", fn)
	}
	params := paramTypes(m.sig)
	if t.NumIn() != 2+len(params) {
		return fmt.Errorf("native func takes %d parameters, want %d", t.NumIn(), 2+len(params))
	}
	if !envType.AssignableTo(t.In(0)) || t.In(1) != refType {
		return errors.New("native func must start with (jni.Env, jni.Ref)")
	}
	for i, p := range params {
		if !kindMatches(t.In(2+i), p) {
			return fmt.Errorf("parameter %d is %s, want %s", i, t.In(2+i), p)
		}
	}
	switch {
	case m.ret == jni.Void && t.NumOut() != 0:
		return errors.New("void method must not return a value")
	case m.ret != jni.Void && (t.NumOut() != 1 || !kindMatches(t.Out(0), m.ret)):
		return fmt.Errorf("native func must return %s", m.ret)
	}
	return nil
}

// paramTypes returns the type codes of a method descriptor's parameters.
func paramTypes(sig string) []jni.Type {
	var out []jni.Type
	for i := 1; i < len(sig) && sig[i] != ')'; i++ {
		t := jni.Type(sig[i])
		switch t {
		case jni.Object:
			for sig[i] != ';' {
				i++
			}
		case jni.Array:
			for sig[i] == '[' {
				i++
			}
			if sig[i] == 'L' {
				for sig[i] != ';' {
					i++
				}
			}
		}
		out = append(out, t)
	}
	return out
}

func kindMatches(rt reflect.Type, t jni.Type) bool {
	switch t {
	case jni.Boolean:
		return rt.Kind() == reflect.Bool
	case jni.Byte:
		return rt.Kind() == reflect.Int8
	case jni.Char:
		return rt.Kind() == reflect.Uint16
	case jni.Short:
		return rt.Kind() == reflect.Int16
	case jni.Int:
		return rt.Kind() == reflect.Int32
	case jni.Long:
		return rt.Kind() == reflect.Int64
	case jni.Float:
		return rt.Kind() == reflect.Float32
	case jni.Double:
		return rt.Kind() == reflect.Float64
	case jni.Object, jni.Array:
		return rt.Kind() == reflect.Uintptr
	}
	return false
}

func toReflect(v jni.Value, rt reflect.Type) reflect.Value {
	var x any
	switch rt.Kind() {
	case reflect.Bool:
		x = v.Bool()
	case reflect.Int8:
		x = v.Byte()
	case reflect.Uint16:
		x = v.Char()
	case reflect.Int16:
		x = v.Short()
	case reflect.Int32:
		x = v.Int()
	case reflect.Int64:
		x = v.Long()
	case reflect.Float32:
		x = v.Float()
	case reflect.Float64:
		x = v.Double()
	default:
		x = v.Ref()
	}
	return reflect.ValueOf(x).Convert(rt)
}

func fromReflect(rv reflect.Value) jni.Value {
	switch rv.Kind() {
	case reflect.Bool:
		return jni.BoolValue(rv.Bool())
	case reflect.Int8:
		return jni.ByteValue(int8(rv.Int()))
	case reflect.Uint16:
		return jni.CharValue(uint16(rv.Uint()))
	case reflect.Int16:
		return jni.ShortValue(int16(rv.Int()))
	case reflect.Int32:
		return jni.IntValue(int32(rv.Int()))
	case reflect.Int64:
		return jni.LongValue(rv.Int())
	case reflect.Float32:
		return jni.FloatValue(float32(rv.Float()))
	case reflect.Float64:
		return jni.DoubleValue(rv.Float())
	}
	return jni.RefValue(jni.Ref(rv.Uint()))
}

// callRegistered runs the Go function registered for a native method.
func (e *Env) callRegistered(m *Method, this jni.Ref, args []jni.Value) (jni.Value, error) {
	e.vm.mu.Lock()
	fn := m.class.natives[m.name+m.sig]
	e.vm.mu.Unlock()
	if fn == nil {
		return 0, fmt.Errorf("%s.%s%s is not registered", jni.DotName(m.class.name), m.name, m.sig)
	}
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.NumIn() != 2+len(args) {
		return 0, fmt.Errorf("%s%s called with %d arguments", m.name, m.sig, len(args))
	}
	in := make([]reflect.Value, 0, ft.NumIn())
	in = append(in, reflect.ValueOf(jni.Env(e)).Convert(ft.In(0)), reflect.ValueOf(this))
	for i, a := range args {
		in = append(in, toReflect(a, ft.In(2+i)))
	}
	out := fv.Call(in)
	if len(out) == 0 {
		return 0, nil
	}
	return fromReflect(out[0]), nil
}

// CallNative invokes a registered native method the way managed code would,
// on the calling thread, which must be attached. this is the receiver for
// instance methods and is ignored for static ones. An exception the native
// code leaves pending is cleared and returned as an error of the form
// "class: message".
func (vm *VM) CallNative(className, name, sig string, this jni.Ref, args ...jni.Value) (jni.Value, error) {
	env, st := vm.GetEnv(jni.Version1_6)
	if st != jni.OK {
		return 0, fmt.Errorf("jnitest: CallNative on a detached thread: %s", st)
	}
	e := env.(*Env)

	vm.mu.Lock()
	cls := vm.classes[className]
	var m *Method
	if cls != nil {
		m = cls.methods[name+sig]
		if m == nil {
			m = cls.statics[name+sig]
		}
	}
	if m != nil && m.static {
		this = e.local(cls.object)
	}
	vm.mu.Unlock()
	if m == nil || !m.native {
		return 0, fmt.Errorf("jnitest: %s.%s%s is not a native method", className, name, sig)
	}

	v, err := e.callRegistered(m, this, args)
	if err != nil {
		return 0, err
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if m.static {
		vm.deleteRef(this, localRef)
	}
	if exc := e.pending; exc != nil {
		e.pending = nil
		msg := jni.DotName(exc.ClassName())
		if exc.Message != "" {
			msg += ": " + exc.Message
		}
		return v, errors.New(msg)
	}
	return v, nil
}

// IsRegistered reports whether a native implementation is registered for
// the method.
func (vm *VM) IsRegistered(className, name, sig string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	cls := vm.classes[className]
	return cls != nil && cls.natives[name+sig] != nil
}
