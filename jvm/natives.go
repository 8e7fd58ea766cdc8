//go:build (linux || darwin) && (amd64 || arm64)

package jvm

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/2gis/qtandroidextensions-sub000/jni"
	"github.com/ebitengine/purego"
)

// purego callbacks are never freed and the runtime caps their number.
const maxCallbacks = 2000

var (
	callbacksMu sync.Mutex
	callbacks   int

	envType     = reflect.TypeOf((*jni.Env)(nil)).Elem()
	refType     = reflect.TypeOf(jni.Ref(0))
	boolType    = reflect.TypeOf(false)
	uintptrType = reflect.TypeOf(uintptr(0))
	uint8Type   = reflect.TypeOf(uint8(0))
)

// jniNativeMethod mirrors JNINativeMethod.
type jniNativeMethod struct {
	name      *byte
	signature *byte
	fnPtr     uintptr
}

func cstring(s string) []byte { return append([]byte(s), 0) }

// nativeTable builds a JNINativeMethod array. The returned byte slices back
// the name and signature pointers and must stay alive for the call.
func nativeTable(methods []jni.NativeMethod) ([]jniNativeMethod, [][]byte, error) {
	if len(methods) == 0 {
		return nil, nil, errors.New("qjni: empty native method table")
	}
	table := make([]jniNativeMethod, len(methods))
	keep := make([][]byte, 0, 2*len(methods))
	for i, m := range methods {
		fp, err := newCallback(m.Func)
		if err != nil {
			return nil, nil, fmt.Errorf("native %s%s: %w", m.Name, m.Signature, err)
		}
		name, sig := cstring(m.Name), cstring(m.Signature)
		keep = append(keep, name, sig)
		table[i] = jniNativeMethod{name: &name[0], signature: &sig[0], fnPtr: fp}
	}
	return table, keep, nil
}

// cType maps a Go parameter type of a native method to its C ABI shape.
func cType(t reflect.Type) (reflect.Type, error) {
	switch {
	case t == boolType:
		return uint8Type, nil
	case t == refType:
		return uintptrType, nil
	}
	switch t.Kind() {
	case reflect.Int8, reflect.Uint16, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Float32, reflect.Float64, reflect.Uintptr:
		return t, nil
	}
	return nil, fmt.Errorf("unsupported native parameter type %s", t)
}

// newCallback turns func(jni.Env, jni.Ref, ...) into a C function pointer
// taking (JNIEnv*, jobject, ...).
func newCallback(fn any) (uintptr, error) {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func || t.NumIn() < 2 || t.In(0) != envType || t.In(1) != refType || t.NumOut() > 1 {
		return 0, fmt.Errorf("native func must be func(jni.Env, jni.Ref, ...) with at most one result, got %s", t)
	}

	in := []reflect.Type{uintptrType, uintptrType}
	for i := 2; i < t.NumIn(); i++ {
		ct, err := cType(t.In(i))
		if err != nil {
			return 0, err
		}
		in = append(in, ct)
	}
	var out []reflect.Type
	if t.NumOut() == 1 {
		ct, err := cType(t.Out(0))
		if err != nil {
			return 0, err
		}
		out = append(out, ct)
	}

	adapter := reflect.MakeFunc(reflect.FuncOf(in, out, false), func(args []reflect.Value) []reflect.Value {
		goArgs := make([]reflect.Value, len(args))
		goArgs[0] = reflect.ValueOf(EnvFromPointer(uintptr(args[0].Uint())))
		goArgs[1] = reflect.ValueOf(jni.Ref(args[1].Uint()))
		for i := 2; i < len(args); i++ {
			goArgs[i] = fromC(args[i], t.In(i))
		}
		res := v.Call(goArgs)
		if len(res) == 0 {
			return nil
		}
		return []reflect.Value{toC(res[0])}
	})

	callbacksMu.Lock()
	defer callbacksMu.Unlock()
	if callbacks >= maxCallbacks {
		return 0, fmt.Errorf("native callback limit of %d reached", maxCallbacks)
	}
	callbacks++
	return purego.NewCallback(adapter.Interface()), nil
}

func fromC(v reflect.Value, want reflect.Type) reflect.Value {
	switch want {
	case boolType:
		return reflect.ValueOf(v.Uint() != 0)
	case refType:
		return reflect.ValueOf(jni.Ref(v.Uint()))
	}
	return v
}

func toC(v reflect.Value) reflect.Value {
	switch v.Type() {
	case boolType:
		if v.Bool() {
			return reflect.ValueOf(uint8(1))
		}
		return reflect.ValueOf(uint8(0))
	case refType:
		return reflect.ValueOf(uintptr(v.Uint()))
	}
	return v
}
