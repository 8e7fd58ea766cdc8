package qjni

import (
	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// Instance method calls mirror the static ones. A null handle fails with
// ErrObjectIsNull before any runtime call is made.

// CallVoid calls the void method name without parameters.
func (o *Object) CallVoid(name string) error {
	return o.CallParamVoid(name, "")
}

// CallParamVoid calls the void method name with args.
func (o *Object) CallParamVoid(name, params string, args ...any) error {
	t, err := o.instance("CallParamVoid", name)
	if err != nil {
		return err
	}
	_, err = t.value("CallParamVoid", name, jni.MethodSignature(params, "V"), args)
	return err
}

// CallBool calls the boolean method name without parameters.
func (o *Object) CallBool(name string) (bool, error) {
	return o.CallParamBool(name, "")
}

// CallParamBool calls the boolean method name with args.
func (o *Object) CallParamBool(name, params string, args ...any) (bool, error) {
	v, err := o.callValue("CallParamBool", name, jni.MethodSignature(params, "Z"), args)
	return v.Bool(), err
}

// CallInt calls the int method name without parameters.
func (o *Object) CallInt(name string) (int32, error) {
	return o.CallParamInt(name, "")
}

// CallParamInt calls the int method name with args.
func (o *Object) CallParamInt(name, params string, args ...any) (int32, error) {
	v, err := o.callValue("CallParamInt", name, jni.MethodSignature(params, "I"), args)
	return v.Int(), err
}

// CallLong calls the long method name without parameters.
func (o *Object) CallLong(name string) (int64, error) {
	return o.CallParamLong(name, "")
}

// CallParamLong calls the long method name with args.
func (o *Object) CallParamLong(name, params string, args ...any) (int64, error) {
	v, err := o.callValue("CallParamLong", name, jni.MethodSignature(params, "J"), args)
	return v.Long(), err
}

// CallFloat calls the float method name without parameters.
func (o *Object) CallFloat(name string) (float32, error) {
	return o.CallParamFloat(name, "")
}

// CallParamFloat calls the float method name with args.
func (o *Object) CallParamFloat(name, params string, args ...any) (float32, error) {
	v, err := o.callValue("CallParamFloat", name, jni.MethodSignature(params, "F"), args)
	return v.Float(), err
}

// CallDouble calls the double method name without parameters.
func (o *Object) CallDouble(name string) (float64, error) {
	return o.CallParamDouble(name, "")
}

// CallParamDouble calls the double method name with args.
func (o *Object) CallParamDouble(name, params string, args ...any) (float64, error) {
	v, err := o.callValue("CallParamDouble", name, jni.MethodSignature(params, "D"), args)
	return v.Double(), err
}

// CallString calls the String method name without parameters.
func (o *Object) CallString(name string) (string, error) {
	return o.CallParamString(name, "")
}

// CallParamString calls the String method name with args.
func (o *Object) CallParamString(name, params string, args ...any) (string, error) {
	t, err := o.instance("CallParamString", name)
	if err != nil {
		return "", err
	}
	return t.str("CallParamString", name, jni.MethodSignature(params, "Ljava/lang/String;"), args)
}

// CallObj calls a method returning an object of class returnType. A null
// result is returned as a nil *Object.
func (o *Object) CallObj(name, returnType string) (*Object, error) {
	return o.CallParamObj(name, returnType, "")
}

// CallParamObj calls the object method name with args.
func (o *Object) CallParamObj(name, returnType, params string, args ...any) (*Object, error) {
	t, err := o.instance("CallParamObj", name)
	if err != nil {
		return nil, err
	}
	return t.object("CallParamObj", name, jni.MethodSignature(params, jni.ObjectType(returnType)), args)
}

// CallSig calls a method with a complete signature. See CallStaticSig.
func (o *Object) CallSig(name, sig string, args ...any) (jni.Value, *Object, error) {
	t, err := o.instance("CallSig", name)
	if err != nil {
		return 0, nil, err
	}
	return t.sig("CallSig", name, sig, args)
}

func (o *Object) callValue(site, name, sig string, args []any) (jni.Value, error) {
	t, err := o.instance(site, name)
	if err != nil {
		return 0, err
	}
	return t.value(site, name, sig, args)
}

// Instance fields.

func (o *Object) getField(site, name, sig string) (jni.Value, error) {
	t, err := o.instance(site, name)
	if err != nil {
		return 0, err
	}
	return t.field(site, name, sig)
}

func (o *Object) setField(site, name, sig string, v any) error {
	t, err := o.instance(site, name)
	if err != nil {
		return err
	}
	return t.setField(site, name, sig, v)
}

// GetFieldBool reads the boolean field name.
func (o *Object) GetFieldBool(name string) (bool, error) {
	v, err := o.getField("GetFieldBool", name, "Z")
	return v.Bool(), err
}

// GetFieldInt reads the int field name.
func (o *Object) GetFieldInt(name string) (int32, error) {
	v, err := o.getField("GetFieldInt", name, "I")
	return v.Int(), err
}

// GetFieldLong reads the long field name.
func (o *Object) GetFieldLong(name string) (int64, error) {
	v, err := o.getField("GetFieldLong", name, "J")
	return v.Long(), err
}

// GetFieldFloat reads the float field name.
func (o *Object) GetFieldFloat(name string) (float32, error) {
	v, err := o.getField("GetFieldFloat", name, "F")
	return v.Float(), err
}

// GetFieldDouble reads the double field name.
func (o *Object) GetFieldDouble(name string) (float64, error) {
	v, err := o.getField("GetFieldDouble", name, "D")
	return v.Double(), err
}

// GetFieldString reads the String field name.
func (o *Object) GetFieldString(name string) (string, error) {
	t, err := o.instance("GetFieldString", name)
	if err != nil {
		return "", err
	}
	return t.stringField("GetFieldString", name)
}

// GetFieldObj reads a field of class typeName. A null value is returned as
// a nil *Object.
func (o *Object) GetFieldObj(name, typeName string) (*Object, error) {
	t, err := o.instance("GetFieldObj", name)
	if err != nil {
		return nil, err
	}
	return t.objectField("GetFieldObj", name, typeName)
}

// SetFieldBool writes the boolean field name.
func (o *Object) SetFieldBool(name string, v bool) error {
	return o.setField("SetFieldBool", name, "Z", v)
}

// SetFieldInt writes the int field name.
func (o *Object) SetFieldInt(name string, v int32) error {
	return o.setField("SetFieldInt", name, "I", v)
}

// SetFieldLong writes the long field name.
func (o *Object) SetFieldLong(name string, v int64) error {
	return o.setField("SetFieldLong", name, "J", v)
}

// SetFieldFloat writes the float field name.
func (o *Object) SetFieldFloat(name string, v float32) error {
	return o.setField("SetFieldFloat", name, "F", v)
}

// SetFieldDouble writes the double field name.
func (o *Object) SetFieldDouble(name string, v float64) error {
	return o.setField("SetFieldDouble", name, "D", v)
}

// SetFieldString writes the String field name.
func (o *Object) SetFieldString(name, v string) error {
	return o.setField("SetFieldString", name, "Ljava/lang/String;", v)
}

// SetFieldObj writes a field of class typeName. v may be nil.
func (o *Object) SetFieldObj(name, typeName string, v *Object) error {
	return o.setField("SetFieldObj", name, jni.ObjectType(typeName), v)
}
