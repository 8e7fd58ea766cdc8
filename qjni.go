// Package qjni is a bridge between Go and a Java virtual machine running in
// the same process.
//
// The bridge keeps one process-wide VM (SetJavaVM, or detection of a VM the
// host created). Any goroutine may call into it: the calling OS thread is
// attached on first use and detached again by ReleaseThread. Classes are
// resolved once and cached by name, so application classes preloaded on a
// runtime thread remain usable from threads attached later.
//
// Class and Object handles own global references and must be closed. Every
// managed exception raised by a call is cleared and returned as an *Error
// wrapping ErrJavaCall; resolution failures wrap ErrClassNotFound,
// ErrMethodNotFound or ErrFieldNotFound.
//
//	if err := qjni.Init(qjni.ConfigFromEnv()); err != nil {
//		return err
//	}
//	sb, err := qjni.NewObject("java/lang/StringBuilder", "Ljava/lang/String;", "hello")
//	if err != nil {
//		return err
//	}
//	defer sb.Close()
//	n, err := sb.CallInt("length")
package qjni

import (
	"errors"
	"fmt"

	"github.com/2gis/qtandroidextensions-sub000/jni"
	"github.com/2gis/qtandroidextensions-sub000/jvm"
	"go.uber.org/zap"
)

// createVM boots a VM in the process.
var createVM = func(opts jvm.Options) (jni.VM, error) {
	vm, err := jvm.Create(opts)
	if err != nil {
		return nil, err
	}
	return vm, nil
}

// Init registers a VM according to cfg and preloads cfg.Preload. It stops
// at the first class that cannot be resolved.
func Init(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	lib, err := cfg.libraryPath()
	if err != nil {
		return err
	}

	var vm jni.VM
	how := "detected"
	if cfg.AutoDetect {
		resetDetection(lib)
		vm, err = detectVM(lib)
		if err != nil && (!cfg.Create || !errors.Is(err, jvm.ErrNoVM)) {
			return fmt.Errorf("qjni: detect java vm: %w", err)
		}
	}
	if vm == nil {
		how = "created"
		vm, err = createVM(jvm.Options{
			LibraryPath: lib,
			Version:     cfg.Version,
			Options:     cfg.Options,
		})
		if err != nil {
			return fmt.Errorf("qjni: create java vm: %w", err)
		}
	}
	SetJavaVM(vm)

	for _, name := range cfg.Preload {
		if err := defaultCache.Preload(name); err != nil {
			return err
		}
	}
	log().Info("bridge initialized",
		zap.String("vm", how),
		zap.String("library", lib),
		zap.Int("preloaded", len(cfg.Preload)))
	return nil
}
