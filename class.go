package qjni

import (
	"runtime"
	"sync"

	"github.com/2gis/qtandroidextensions-sub000/jni"
	"go.uber.org/zap"
)

// Class owns a global reference to a managed class. The zero Class is a
// null handle. A Class is not safe for concurrent use.
type Class struct {
	vm    jni.VM
	class jni.Ref
	name  string // slash form, for messages
}

// NewClass resolves name through the default class cache and returns a
// handle owning a new global reference to it.
func NewClass(name string) (*Class, error) {
	var c *Class
	err := withEnv("NewClass", func(env jni.Env) error {
		var err error
		c, err = newClass(env, name, "NewClass")
		return err
	})
	return c, err
}

func newClass(env jni.Env, name, site string) (*Class, error) {
	name = jni.ClassName(name)
	cached, ok := defaultCache.resolve(env, name)
	if !ok {
		return nil, newError(ErrClassNotFound, name, "", site, "")
	}
	c := &Class{vm: env.VM(), class: env.NewGlobalRef(cached), name: name}
	runtime.SetFinalizer(c, (*Class).finalize)
	return c, nil
}

// WrapClass returns a handle owning a new global reference to the class
// reference cls. cls itself is not consumed.
func WrapClass(env jni.Env, cls jni.Ref) *Class {
	c := &Class{vm: env.VM()}
	if cls != 0 {
		c.class = env.NewGlobalRef(cls)
		c.name = className(env, cls)
	}
	runtime.SetFinalizer(c, (*Class).finalize)
	return c
}

// className asks the class object for its name. Failures yield "".
func className(env jni.Env, cls jni.Ref) string {
	classCls := env.GetObjectClass(cls)
	if classCls == 0 {
		CheckAndClear(env, false)
		return ""
	}
	defer env.DeleteLocalRef(classCls)
	m := env.GetMethodID(classCls, "getName", "()Ljava/lang/String;")
	if m == 0 {
		CheckAndClear(env, false)
		return ""
	}
	s := env.CallMethodA(cls, m, jni.Object, nil).Ref()
	if swallowException(env, "getName") {
		return ""
	}
	return jni.SlashName(takeString(env, s))
}

// Name returns the slash-separated class name, or "" if unknown.
func (c *Class) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// ClassRef returns the global class reference, still owned by c.
func (c *Class) ClassRef() jni.Ref {
	if c == nil {
		return 0
	}
	return c.class
}

// IsClassNull reports whether the handle holds no class.
func (c *Class) IsClassNull() bool { return c.ClassRef() == 0 }

func (c *Class) checkedClass(site string) (jni.Ref, error) {
	if c.ClassRef() == 0 {
		return 0, classNotSet(c.Name(), site)
	}
	return c.class, nil
}

// Clone returns a handle owning a new global reference to the same class.
func (c *Class) Clone() (*Class, error) {
	if c.IsClassNull() {
		return &Class{name: c.Name()}, nil
	}
	var out *Class
	err := withEnv("Class.Clone", func(env jni.Env) error {
		out = &Class{vm: c.vm, class: env.NewGlobalRef(c.class), name: c.name}
		runtime.SetFinalizer(out, (*Class).finalize)
		return nil
	})
	return out, err
}

// Move transfers the reference to a new handle and leaves c null.
func (c *Class) Move() *Class {
	out := &Class{vm: c.vm, class: c.class, name: c.name}
	c.class = 0
	runtime.SetFinalizer(out, (*Class).finalize)
	return out
}

// Close deletes the global reference. It is idempotent.
func (c *Class) Close() error {
	if c == nil || c.class == 0 {
		return nil
	}
	r := c.class
	c.class = 0
	runtime.SetFinalizer(c, nil)
	return withEnv("Class.Close", func(env jni.Env) error {
		env.DeleteGlobalRef(r)
		return nil
	})
}

func (c *Class) finalize() {
	if c.class != 0 {
		releaseLater(c.vm, c.class)
		c.class = 0
	}
}

// IsCastableTo reports whether instances of c can be assigned to other.
func (c *Class) IsCastableTo(other *Class) (bool, error) {
	cls, err := c.checkedClass("IsCastableTo")
	if err != nil {
		return false, err
	}
	to, err := other.checkedClass("IsCastableTo")
	if err != nil {
		return false, err
	}
	var ok bool
	err = withEnv("IsCastableTo", func(env jni.Env) error {
		ok = env.IsAssignableFrom(cls, to)
		return javaCallError(env, c.name, "", "IsCastableTo")
	})
	return ok, err
}

// Handles finalized on the GC goroutine hand their references here; they
// are deleted by the next thread that acquires a context for the same VM.
var (
	orphansMu sync.Mutex
	orphans   []orphan
)

type orphan struct {
	vm  jni.VM
	ref jni.Ref
}

func releaseLater(vm jni.VM, refs ...jni.Ref) {
	if vm == nil {
		return
	}
	orphansMu.Lock()
	defer orphansMu.Unlock()
	for _, r := range refs {
		if r != 0 {
			orphans = append(orphans, orphan{vm: vm, ref: r})
		}
	}
}

func drainOrphans(vm jni.VM, env jni.Env) {
	orphansMu.Lock()
	if len(orphans) == 0 {
		orphansMu.Unlock()
		return
	}
	// References of VMs other than vm belong to VMs that are no longer
	// registered and are dropped.
	var mine []jni.Ref
	for _, o := range orphans {
		if o.vm == vm {
			mine = append(mine, o.ref)
		}
	}
	orphans = nil
	orphansMu.Unlock()

	for _, r := range mine {
		env.DeleteGlobalRef(r)
	}
	if len(mine) > 0 {
		log().Debug("released finalized references", zap.Int("count", len(mine)))
	}
}
