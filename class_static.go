package qjni

import (
	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// Static method calls. The plain variants call a method without
// parameters; the Param variants take the parameter part of the signature,
// e.g. "ILjava/lang/String;", and the matching arguments.

// CallStaticVoid calls the void static method name without parameters.
func (c *Class) CallStaticVoid(name string) error {
	return c.CallStaticParamVoid(name, "")
}

// CallStaticParamVoid calls the void static method name with args.
func (c *Class) CallStaticParamVoid(name, params string, args ...any) error {
	_, err := c.statics().value("CallStaticParamVoid", name, jni.MethodSignature(params, "V"), args)
	return err
}

// CallStaticBool calls the boolean static method name without parameters.
func (c *Class) CallStaticBool(name string) (bool, error) {
	return c.CallStaticParamBool(name, "")
}

// CallStaticParamBool calls the boolean static method name with args.
func (c *Class) CallStaticParamBool(name, params string, args ...any) (bool, error) {
	v, err := c.statics().value("CallStaticParamBool", name, jni.MethodSignature(params, "Z"), args)
	return v.Bool(), err
}

// CallStaticInt calls the int static method name without parameters.
func (c *Class) CallStaticInt(name string) (int32, error) {
	return c.CallStaticParamInt(name, "")
}

// CallStaticParamInt calls the int static method name with args.
func (c *Class) CallStaticParamInt(name, params string, args ...any) (int32, error) {
	v, err := c.statics().value("CallStaticParamInt", name, jni.MethodSignature(params, "I"), args)
	return v.Int(), err
}

// CallStaticLong calls the long static method name without parameters.
func (c *Class) CallStaticLong(name string) (int64, error) {
	return c.CallStaticParamLong(name, "")
}

// CallStaticParamLong calls the long static method name with args.
func (c *Class) CallStaticParamLong(name, params string, args ...any) (int64, error) {
	v, err := c.statics().value("CallStaticParamLong", name, jni.MethodSignature(params, "J"), args)
	return v.Long(), err
}

// CallStaticFloat calls the float static method name without parameters.
func (c *Class) CallStaticFloat(name string) (float32, error) {
	return c.CallStaticParamFloat(name, "")
}

// CallStaticParamFloat calls the float static method name with args.
func (c *Class) CallStaticParamFloat(name, params string, args ...any) (float32, error) {
	v, err := c.statics().value("CallStaticParamFloat", name, jni.MethodSignature(params, "F"), args)
	return v.Float(), err
}

// CallStaticDouble calls the double static method name without parameters.
func (c *Class) CallStaticDouble(name string) (float64, error) {
	return c.CallStaticParamDouble(name, "")
}

// CallStaticParamDouble calls the double static method name with args.
func (c *Class) CallStaticParamDouble(name, params string, args ...any) (float64, error) {
	v, err := c.statics().value("CallStaticParamDouble", name, jni.MethodSignature(params, "D"), args)
	return v.Double(), err
}

// CallStaticString calls the String static method name without parameters.
func (c *Class) CallStaticString(name string) (string, error) {
	return c.CallStaticParamString(name, "")
}

// CallStaticParamString calls the String static method name with args.
func (c *Class) CallStaticParamString(name, params string, args ...any) (string, error) {
	return c.statics().str("CallStaticParamString", name, jni.MethodSignature(params, "Ljava/lang/String;"), args)
}

// CallStaticObj calls a static method returning an object of class
// returnType. A null result is returned as a nil *Object.
func (c *Class) CallStaticObj(name, returnType string) (*Object, error) {
	return c.CallStaticParamObj(name, returnType, "")
}

// CallStaticParamObj calls the object static method name with args.
func (c *Class) CallStaticParamObj(name, returnType, params string, args ...any) (*Object, error) {
	return c.statics().object("CallStaticParamObj", name, jni.MethodSignature(params, jni.ObjectType(returnType)), args)
}

// CallStaticSig calls a static method with a complete signature such as
// "(IJ)Ljava/lang/String;". A primitive result is returned in v. An object
// result is returned as obj, owned by the caller.
func (c *Class) CallStaticSig(name, sig string, args ...any) (v jni.Value, obj *Object, err error) {
	return c.statics().sig("CallStaticSig", name, sig, args)
}

// Static fields.

// GetStaticFieldBool reads the boolean static field name.
func (c *Class) GetStaticFieldBool(name string) (bool, error) {
	v, err := c.statics().field("GetStaticFieldBool", name, "Z")
	return v.Bool(), err
}

// GetStaticFieldInt reads the int static field name.
func (c *Class) GetStaticFieldInt(name string) (int32, error) {
	v, err := c.statics().field("GetStaticFieldInt", name, "I")
	return v.Int(), err
}

// GetStaticFieldLong reads the long static field name.
func (c *Class) GetStaticFieldLong(name string) (int64, error) {
	v, err := c.statics().field("GetStaticFieldLong", name, "J")
	return v.Long(), err
}

// GetStaticFieldFloat reads the float static field name.
func (c *Class) GetStaticFieldFloat(name string) (float32, error) {
	v, err := c.statics().field("GetStaticFieldFloat", name, "F")
	return v.Float(), err
}

// GetStaticFieldDouble reads the double static field name.
func (c *Class) GetStaticFieldDouble(name string) (float64, error) {
	v, err := c.statics().field("GetStaticFieldDouble", name, "D")
	return v.Double(), err
}

// GetStaticFieldString reads the String static field name.
func (c *Class) GetStaticFieldString(name string) (string, error) {
	return c.statics().stringField("GetStaticFieldString", name)
}

// GetStaticFieldObj reads a static field of class typeName.
func (c *Class) GetStaticFieldObj(name, typeName string) (*Object, error) {
	return c.statics().objectField("GetStaticFieldObj", name, typeName)
}

// GetStaticField reads a static field with type descriptor sig. Reference
// types are not supported; use GetStaticFieldObj.
func (c *Class) GetStaticField(name, sig string) (jni.Value, error) {
	if len(sig) != 1 || !jni.Type(sig[0]).IsPrimitive() {
		return 0, newError(ErrBridge, c.Name(), name, "GetStaticField", "not a primitive type: %s", sig)
	}
	return c.statics().field("GetStaticField", name, sig)
}

// SetStaticFieldBool writes the boolean static field name.
func (c *Class) SetStaticFieldBool(name string, v bool) error {
	return c.statics().setField("SetStaticFieldBool", name, "Z", v)
}

// SetStaticFieldInt writes the int static field name.
func (c *Class) SetStaticFieldInt(name string, v int32) error {
	return c.statics().setField("SetStaticFieldInt", name, "I", v)
}

// SetStaticFieldLong writes the long static field name.
func (c *Class) SetStaticFieldLong(name string, v int64) error {
	return c.statics().setField("SetStaticFieldLong", name, "J", v)
}

// SetStaticFieldFloat writes the float static field name.
func (c *Class) SetStaticFieldFloat(name string, v float32) error {
	return c.statics().setField("SetStaticFieldFloat", name, "F", v)
}

// SetStaticFieldDouble writes the double static field name.
func (c *Class) SetStaticFieldDouble(name string, v float64) error {
	return c.statics().setField("SetStaticFieldDouble", name, "D", v)
}

// SetStaticFieldString writes the String static field name.
func (c *Class) SetStaticFieldString(name, v string) error {
	return c.statics().setField("SetStaticFieldString", name, "Ljava/lang/String;", v)
}

// SetStaticFieldObj writes a static field of class typeName. v may be nil.
func (c *Class) SetStaticFieldObj(name, typeName string, v *Object) error {
	return c.statics().setField("SetStaticFieldObj", name, jni.ObjectType(typeName), v)
}
