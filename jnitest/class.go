package jnitest

import (
	"fmt"
	"unicode/utf16"

	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// MethodFunc implements a managed method. The returned value must match the
// method's return type; object results must be references created through
// the Call (NewString, NewObject, Local).
type MethodFunc func(c *Call) jni.Value

// Method is a method or constructor of a Class.
type Method struct {
	id     jni.MethodID
	class  *Class
	name   string
	sig    string
	static bool
	native bool
	ret    jni.Type
	impl   MethodFunc
}

// Field is an instance or static field of a Class.
type Field struct {
	id     jni.FieldID
	class  *Class
	name   string
	sig    string
	static bool
	typ    jni.Type
}

// Class is a managed class definition.
type Class struct {
	vm      *VM
	name    string
	super   *Class
	methods map[string]*Method // name+sig
	statics map[string]*Method
	fields  map[string]*Field // name
	sfields map[string]*Field
	natives map[string]any // name+sig -> registered Go func
	object  *Instance      // the java/lang/Class instance, also holds static values
}

// Name returns the slash-separated class name.
func (c *Class) Name() string { return c.name }

// Instance is a managed object.
type Instance struct {
	class  *Class
	fields map[jni.FieldID]jni.Value
	objs   map[jni.FieldID]*Instance
	chars  []uint16 // java/lang/String
	array  any      // primitive slice or []*Instance
	elem   jni.Type
	// Message is the detail message of throwables.
	Message string
	// Value lets tests attach arbitrary Go state to an object.
	Value any
	// classOf is set on java/lang/Class instances.
	classOf *Class
}

func (o *Instance) setPrim(f jni.FieldID, v jni.Value) {
	if o.fields == nil {
		o.fields = make(map[jni.FieldID]jni.Value)
	}
	o.fields[f] = v
}

func (o *Instance) setObj(f jni.FieldID, v *Instance) {
	if o.objs == nil {
		o.objs = make(map[jni.FieldID]*Instance)
	}
	o.objs[f] = v
}

// ClassName returns the name of the instance's class; arrays report their
// descriptor.
func (o *Instance) ClassName() string {
	if o.class == nil {
		return "[" + string(o.elem)
	}
	return o.class.name
}

// String returns the contents of a java/lang/String instance.
func (o *Instance) String() string { return string(utf16.Decode(o.chars)) }

// DefineClass defines a class. An empty super defaults to java/lang/Object.
// Redefining a name returns the existing class.
func (vm *VM) DefineClass(name, super string) *Class {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.defineClassLocked(name, super)
}

func (vm *VM) defineClassLocked(name, super string) *Class {
	if c, ok := vm.classes[name]; ok {
		return c
	}
	c := &Class{
		vm:      vm,
		name:    name,
		methods: make(map[string]*Method),
		statics: make(map[string]*Method),
		fields:  make(map[string]*Field),
		sfields: make(map[string]*Field),
		natives: make(map[string]any),
	}
	if name != "java/lang/Object" {
		if super == "" {
			super = "java/lang/Object"
		}
		c.super = vm.classes[super]
	}
	c.object = &Instance{class: vm.classes["java/lang/Class"], classOf: c}
	vm.classes[name] = c
	return c
}

func (c *Class) addMethod(name, sig string, static, native bool, impl MethodFunc) *Class {
	ret, err := jni.ReturnType(sig)
	if err != nil {
		panic(err)
	}
	m := &Method{
		id:     jni.MethodID(newMemberID()),
		class:  c,
		name:   name,
		sig:    sig,
		static: static,
		native: native,
		ret:    ret,
		impl:   impl,
	}
	c.vm.mu.Lock()
	defer c.vm.mu.Unlock()
	if static {
		c.statics[name+sig] = m
	} else {
		c.methods[name+sig] = m
	}
	c.vm.methods[m.id] = m
	return c
}

// Method defines an instance method.
func (c *Class) Method(name, sig string, impl MethodFunc) *Class {
	return c.addMethod(name, sig, false, false, impl)
}

// StaticMethod defines a static method.
func (c *Class) StaticMethod(name, sig string, impl MethodFunc) *Class {
	return c.addMethod(name, sig, true, false, impl)
}

// Constructor defines a constructor. impl runs with This set to the new
// instance; a nil impl accepts the arguments and does nothing.
func (c *Class) Constructor(sig string, impl MethodFunc) *Class {
	if impl == nil {
		impl = func(*Call) jni.Value { return 0 }
	}
	return c.addMethod("<init>", sig, false, false, impl)
}

// NativeMethod declares a method implemented by code registered through
// RegisterNatives.
func (c *Class) NativeMethod(name, sig string, static bool) *Class {
	return c.addMethod(name, sig, static, true, nil)
}

func (c *Class) addField(name, sig string, static bool, initial jni.Value) *Class {
	f := &Field{
		id:     jni.FieldID(newMemberID()),
		class:  c,
		name:   name,
		sig:    sig,
		static: static,
		typ:    jni.Type(sig[0]),
	}
	c.vm.mu.Lock()
	defer c.vm.mu.Unlock()
	if static {
		c.sfields[name] = f
		if initial != 0 {
			c.object.setPrim(f.id, initial)
		}
	} else {
		c.fields[name] = f
	}
	c.vm.fields[f.id] = f
	return c
}

// Field defines an instance field with a type descriptor such as "I" or
// "Ljava/lang/String;".
func (c *Class) Field(name, sig string) *Class {
	return c.addField(name, sig, false, 0)
}

// StaticField defines a static field with an initial value.
func (c *Class) StaticField(name, sig string, initial jni.Value) *Class {
	return c.addField(name, sig, true, initial)
}

// isSubclassOf must be called with vm.mu held or on immutable hierarchy.
func (c *Class) isSubclassOf(sup *Class) bool {
	for k := c; k != nil; k = k.super {
		if k == sup {
			return true
		}
	}
	return false
}

func (c *Class) lookupMethod(key string, static bool) *Method {
	for k := c; k != nil; k = k.super {
		table := k.methods
		if static {
			table = k.statics
		}
		if m, ok := table[key]; ok {
			return m
		}
	}
	return nil
}

func (c *Class) lookupField(name string, static bool) *Field {
	for k := c; k != nil; k = k.super {
		table := k.fields
		if static {
			table = k.sfields
		}
		if f, ok := table[name]; ok {
			return f
		}
	}
	return nil
}

func (vm *VM) defineBuiltins() {
	vm.mu.Lock()
	object := vm.defineClassLocked("java/lang/Object", "")
	class := vm.defineClassLocked("java/lang/Class", "java/lang/Object")
	// java/lang/Object and java/lang/Class were created before the Class
	// class existed.
	object.object.class = class
	class.object.class = class
	vm.defineClassLocked("java/lang/String", "java/lang/Object")
	vm.defineClassLocked("java/lang/Throwable", "java/lang/Object")
	vm.defineClassLocked("java/lang/Exception", "java/lang/Throwable")
	vm.defineClassLocked("java/lang/RuntimeException", "java/lang/Exception")
	vm.defineClassLocked("java/lang/IllegalStateException", "java/lang/RuntimeException")
	vm.defineClassLocked("java/lang/NullPointerException", "java/lang/RuntimeException")
	vm.defineClassLocked("java/lang/ArrayIndexOutOfBoundsException", "java/lang/RuntimeException")
	vm.defineClassLocked("java/lang/ClassNotFoundException", "java/lang/Exception")
	vm.defineClassLocked("java/lang/Error", "java/lang/Throwable")
	vm.defineClassLocked("java/lang/NoClassDefFoundError", "java/lang/Error")
	vm.defineClassLocked("java/lang/NoSuchMethodError", "java/lang/Error")
	vm.defineClassLocked("java/lang/NoSuchFieldError", "java/lang/Error")
	vm.defineClassLocked("java/lang/UnsatisfiedLinkError", "java/lang/Error")
	vm.defineClassLocked("java/lang/ClassLoader", "java/lang/Object")
	vm.mu.Unlock()

	vm.classes["java/lang/Object"].
		Constructor("()V", nil).
		Method("toString", "()Ljava/lang/String;", func(c *Call) jni.Value {
			this := c.This()
			return jni.RefValue(c.NewString(fmt.Sprintf("%s@%x", jni.DotName(this.ClassName()), uintptr(c.ThisRef()))))
		}).
		Method("getClass", "()Ljava/lang/Class;", func(c *Call) jni.Value {
			return jni.RefValue(c.ClassRef(c.This().class))
		}).
		Method("hashCode", "()I", func(c *Call) jni.Value {
			return jni.IntValue(int32(uintptr(c.ThisRef())))
		})

	vm.classes["java/lang/Class"].
		Method("getName", "()Ljava/lang/String;", func(c *Call) jni.Value {
			return jni.RefValue(c.NewString(jni.DotName(c.This().classOf.name)))
		})

	vm.classes["java/lang/String"].
		Method("length", "()I", func(c *Call) jni.Value {
			return jni.IntValue(int32(len(c.This().chars)))
		}).
		Method("toString", "()Ljava/lang/String;", func(c *Call) jni.Value {
			return jni.RefValue(c.Local(c.This()))
		})

	vm.classes["java/lang/Throwable"].
		Constructor("()V", nil).
		Constructor("(Ljava/lang/String;)V", func(c *Call) jni.Value {
			c.This().Message = c.StringArg(0)
			return 0
		}).
		Method("getMessage", "()Ljava/lang/String;", func(c *Call) jni.Value {
			if c.This().Message == "" {
				return 0
			}
			return jni.RefValue(c.NewString(c.This().Message))
		}).
		Method("toString", "()Ljava/lang/String;", func(c *Call) jni.Value {
			s := jni.DotName(c.This().ClassName())
			if msg := c.This().Message; msg != "" {
				s += ": " + msg
			}
			return jni.RefValue(c.NewString(s))
		})

	vm.classes["java/lang/ClassLoader"].
		Method("loadClass", "(Ljava/lang/String;)Ljava/lang/Class;", func(c *Call) jni.Value {
			name := jni.SlashName(c.StringArg(0))
			vm.mu.Lock()
			cls, ok := vm.classes[name]
			vm.mu.Unlock()
			if !ok {
				c.Throw("java/lang/ClassNotFoundException", jni.DotName(name))
				return 0
			}
			return jni.RefValue(c.ClassRef(cls))
		})
}

// Call is the context of a managed method invocation.
type Call struct {
	env    *Env
	method *Method
	this   jni.Ref
	args   []jni.Value
}

// Env returns the environment of the calling thread.
func (c *Call) Env() *Env { return c.env }

// ThisRef returns the receiver reference; zero for static methods.
func (c *Call) ThisRef() jni.Ref { return c.this }

// This returns the receiver object.
func (c *Call) This() *Instance { return c.env.vm.Object(c.this) }

// Arg returns the i-th argument.
func (c *Call) Arg(i int) jni.Value { return c.args[i] }

// Args returns all arguments.
func (c *Call) Args() []jni.Value { return c.args }

// ObjectArg returns the object passed as the i-th argument, or nil.
func (c *Call) ObjectArg(i int) *Instance { return c.env.vm.Object(c.args[i].Ref()) }

// StringArg returns the i-th argument as a Go string; null yields "".
func (c *Call) StringArg(i int) string {
	if o := c.ObjectArg(i); o != nil {
		return o.String()
	}
	return ""
}

// NewString returns a local reference to a new string.
func (c *Call) NewString(s string) jni.Ref {
	return c.env.NewString(utf16.Encode([]rune(s)))
}

// Local returns a new local reference to obj.
func (c *Call) Local(obj *Instance) jni.Ref {
	c.env.vm.mu.Lock()
	defer c.env.vm.mu.Unlock()
	return c.env.vm.newRef(obj, localRef, c.env)
}

// ClassRef returns a local reference to the class object of cls.
func (c *Call) ClassRef(cls *Class) jni.Ref {
	if cls == nil {
		return 0
	}
	return c.Local(cls.object)
}

// NewObject instantiates a class without running a constructor and returns
// a local reference.
func (c *Call) NewObject(className string) jni.Ref {
	vm := c.env.vm
	vm.mu.Lock()
	defer vm.mu.Unlock()
	cls := vm.classes[className]
	if cls == nil {
		panic("jnitest: unknown class " + className)
	}
	return vm.newRef(&Instance{class: cls}, localRef, c.env)
}

// Field returns the value of an instance field of the receiver.
func (c *Call) Field(name string) jni.Value {
	this := c.This()
	f := this.class.lookupField(name, false)
	if f == nil {
		panic("jnitest: unknown field " + name)
	}
	c.env.vm.mu.Lock()
	defer c.env.vm.mu.Unlock()
	return this.fields[f.id]
}

// SetField sets an instance field of the receiver.
func (c *Call) SetField(name string, v jni.Value) {
	this := c.This()
	f := this.class.lookupField(name, false)
	if f == nil {
		panic("jnitest: unknown field " + name)
	}
	c.env.vm.mu.Lock()
	defer c.env.vm.mu.Unlock()
	this.setPrim(f.id, v)
}

// Throw makes a new throwable of className pending on the calling thread.
// The method may still return a value.
func (c *Call) Throw(className, msg string) {
	c.env.throw(className, msg)
}

// Method returns the name and signature of the invoked method.
func (c *Call) Method() string { return c.method.name + c.method.sig }

func isStringClass(c *Class) bool { return c != nil && c.name == "java/lang/String" }
