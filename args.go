package qjni

import (
	"math"

	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// callArgs holds converted call arguments and the local references created
// for them.
type callArgs struct {
	values []jni.Value
	locals []jni.Ref
}

func (a *callArgs) release(env jni.Env) {
	for _, r := range a.locals {
		env.DeleteLocalRef(r)
	}
	a.locals = nil
}

// convertArgs converts Go values to jvalues. The mapping follows the Value
// accessors of package jni: bool is Z, int8 and uint8 are B, uint16 is C,
// int16 is S, int32 and int are I, int64 is J, float32 is F and float64 is D.
// Strings become new java/lang/String objects that live until release.
func convertArgs(env jni.Env, args []any) (*callArgs, error) {
	ca := &callArgs{values: make([]jni.Value, len(args))}
	for i, a := range args {
		var v jni.Value
		switch x := a.(type) {
		case nil:
		case bool:
			v = jni.BoolValue(x)
		case int8:
			v = jni.ByteValue(x)
		case uint8:
			v = jni.ByteValue(int8(x))
		case uint16:
			v = jni.CharValue(x)
		case int16:
			v = jni.ShortValue(x)
		case int32:
			v = jni.IntValue(x)
		case int:
			if x < math.MinInt32 || x > math.MaxInt32 {
				ca.release(env)
				return nil, newError(ErrBridge, "", "", "convertArgs", "argument %d: %d overflows int32", i, x)
			}
			v = jni.IntValue(int32(x))
		case int64:
			v = jni.LongValue(x)
		case float32:
			v = jni.FloatValue(x)
		case float64:
			v = jni.DoubleValue(x)
		case string:
			r := newJString(env, x)
			ca.locals = append(ca.locals, r)
			v = jni.RefValue(r)
		case jni.Ref:
			v = jni.RefValue(x)
		case jni.Value:
			v = x
		case *Object:
			v = jni.RefValue(x.Ref())
		case *Class:
			v = jni.RefValue(x.ClassRef())
		case *ScopedRef:
			v = jni.RefValue(x.Ref())
		default:
			ca.release(env)
			return nil, newError(ErrBridge, "", "", "convertArgs", "argument %d: unsupported type %T", i, a)
		}
		ca.values[i] = v
	}
	return ca, nil
}
