package qjni

import (
	"errors"
	"sync"

	"github.com/2gis/qtandroidextensions-sub000/jni"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ClassCache maps class names to global class references.
//
// FindClass only sees application classes on threads the runtime created
// itself; threads attached from native code resolve against the system
// class loader. Classes preloaded on a runtime thread, or resolved through a
// registered class loader, stay usable from every thread.
//
// The map is guarded by a mutex that is never held while calling into the
// runtime. Concurrent misses for the same name share one resolution.
type ClassCache struct {
	mu      sync.Mutex
	classes map[string]jni.Ref
	group   singleflight.Group

	loader    jni.Ref // global java/lang/ClassLoader, optional
	loadClass jni.MethodID
}

// NewClassCache returns an empty cache.
func NewClassCache() *ClassCache {
	return &ClassCache{classes: make(map[string]jni.Ref)}
}

var defaultCache = NewClassCache()

// DefaultClassCache returns the process-wide cache used by NewClass and
// NewObject.
func DefaultClassCache() *ClassCache { return defaultCache }

// PreloadClasses preloads names into the default cache.
func PreloadClasses(names ...string) error {
	return defaultCache.PreloadAll(names...)
}

// lookup accepts every class name form jni.ClassName does.
func (c *ClassCache) lookup(name string) (jni.Ref, bool) {
	name = jni.ClassName(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.classes[name]
	return r, ok
}

// insert stores global under name unless another resolution got there
// first, in which case global is deleted and the existing reference is
// returned.
func (c *ClassCache) insert(env jni.Env, name string, global jni.Ref) jni.Ref {
	c.mu.Lock()
	existing, ok := c.classes[name]
	if !ok {
		c.classes[name] = global
	}
	c.mu.Unlock()
	if ok {
		env.DeleteGlobalRef(global)
		return existing
	}
	return global
}

// IsPreloaded reports whether name is in the cache. name may be in slash
// or descriptor form.
func (c *ClassCache) IsPreloaded(name string) bool {
	_, ok := c.lookup(name)
	return ok
}

// Len returns the number of cached classes.
func (c *ClassCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.classes)
}

// Preload resolves name and caches it. Preloading a cached name is a cheap
// hit. The error reports why the class could not be resolved.
func (c *ClassCache) Preload(name string) error {
	return withEnv("Preload", func(env jni.Env) error {
		if _, ok := c.resolve(env, name); !ok {
			return newError(ErrClassNotFound, name, "", "Preload", "")
		}
		return nil
	})
}

// PreloadAll preloads every name, continuing past failures, and returns the
// joined errors.
func (c *ClassCache) PreloadAll(names ...string) error {
	var errs []error
	loaded := 0
	for _, n := range names {
		if err := c.Preload(n); err != nil {
			errs = append(errs, err)
			continue
		}
		loaded++
	}
	log().Info("classes preloaded", zap.Int("loaded", loaded), zap.Int("failed", len(errs)))
	return errors.Join(errs...)
}

// Resolve returns the cached global reference for name, resolving and
// caching it on a miss. The reference is owned by the cache. ok is false if
// the class does not exist or the thread has no context; no exception is
// left pending.
func (c *ClassCache) Resolve(name string) (ref jni.Ref, ok bool) {
	if r, hit := c.lookup(name); hit {
		return r, true
	}
	err := withEnv("Resolve", func(env jni.Env) error {
		ref, ok = c.resolve(env, name)
		return nil
	})
	if err != nil {
		log().Warn("class resolution without context", zap.String("class", name), zap.Error(err))
		return 0, false
	}
	return ref, ok
}

func (c *ClassCache) resolve(env jni.Env, name string) (jni.Ref, bool) {
	name = jni.ClassName(name)
	if r, ok := c.lookup(name); ok {
		return r, true
	}
	v, _, _ := c.group.Do(name, func() (any, error) {
		// A flight that finished between the lookup above and Do has
		// already cached the class.
		if r, ok := c.lookup(name); ok {
			return r, nil
		}
		local := c.find(env, name)
		if local == 0 {
			return jni.Ref(0), nil
		}
		global := env.NewGlobalRef(local)
		env.DeleteLocalRef(local)
		if global == 0 {
			CheckAndClear(env, false)
			return jni.Ref(0), nil
		}
		return c.insert(env, name, global), nil
	})
	r := v.(jni.Ref)
	if r == 0 {
		log().Debug("class not found", zap.String("class", name))
	}
	return r, r != 0
}

// find resolves name through FindClass and then through the registered
// class loader. It returns a local reference or 0.
func (c *ClassCache) find(env jni.Env, name string) jni.Ref {
	if r := env.FindClass(name); r != 0 {
		return r
	}
	CheckAndClear(env, false)

	c.mu.Lock()
	loader, loadClass := c.loader, c.loadClass
	c.mu.Unlock()
	if loader == 0 || jni.IsArrayType(name) {
		return 0
	}
	dotted := newJString(env, jni.DotName(name))
	defer env.DeleteLocalRef(dotted)
	r := env.CallMethodA(loader, loadClass, jni.Object, []jni.Value{jni.RefValue(dotted)}).Ref()
	if CheckAndClear(env, false) {
		if r != 0 {
			env.DeleteLocalRef(r)
		}
		return 0
	}
	return r
}

// SetClassLoader registers a java/lang/ClassLoader used when FindClass
// cannot see a class, typically the application class loader captured on
// the main thread. A nil loader removes it.
func (c *ClassCache) SetClassLoader(loader *Object) error {
	return withEnv("SetClassLoader", func(env jni.Env) error {
		var global jni.Ref
		var m jni.MethodID
		if !loader.IsNull() {
			cls := env.FindClass("java/lang/ClassLoader")
			if cls == 0 {
				CheckAndClear(env, false)
				return newError(ErrClassNotFound, "java/lang/ClassLoader", "", "SetClassLoader", "")
			}
			m = env.GetMethodID(cls, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;")
			env.DeleteLocalRef(cls)
			if m == 0 {
				CheckAndClear(env, false)
				return newError(ErrMethodNotFound, "java/lang/ClassLoader", "loadClass", "SetClassLoader", "")
			}
			global = env.NewGlobalRef(loader.Ref())
		}
		c.mu.Lock()
		old := c.loader
		c.loader, c.loadClass = global, m
		c.mu.Unlock()
		if old != 0 {
			env.DeleteGlobalRef(old)
		}
		return nil
	})
}

// EvictAll deletes every cached reference and the class loader. It is meant
// for orderly shutdown.
func (c *ClassCache) EvictAll() error {
	c.mu.Lock()
	refs := make([]jni.Ref, 0, len(c.classes)+1)
	for _, r := range c.classes {
		refs = append(refs, r)
	}
	if c.loader != 0 {
		refs = append(refs, c.loader)
	}
	n := len(c.classes)
	c.classes = make(map[string]jni.Ref)
	c.loader, c.loadClass = 0, 0
	c.mu.Unlock()

	if len(refs) == 0 {
		return nil
	}
	err := withEnv("EvictAll", func(env jni.Env) error {
		for _, r := range refs {
			env.DeleteGlobalRef(r)
		}
		return nil
	})
	if err != nil {
		log().Warn("class cache evicted without context, references leaked", zap.Int("classes", n), zap.Error(err))
		return err
	}
	log().Debug("class cache evicted", zap.Int("classes", n))
	return nil
}
