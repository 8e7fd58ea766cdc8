package qjni

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/2gis/qtandroidextensions-sub000/jni"
	"github.com/2gis/qtandroidextensions-sub000/jvm"
	"go.uber.org/zap"
)

type vmBox struct{ vm jni.VM }

var javaVM atomic.Pointer[vmBox]

var (
	detectMu      sync.Mutex
	detectEnabled atomic.Bool
	detectFailed  bool // library missing; never retried
	detectLibrary string

	// detectVM finds a VM already running in the process.
	detectVM = func(libraryPath string) (jni.VM, error) {
		vm, err := jvm.Detect(libraryPath)
		if err != nil {
			return nil, err
		}
		return vm, nil
	}
)

func init() {
	detectEnabled.Store(true)
}

// SetJavaVM registers the process-wide Java VM. The last call wins; nil
// unregisters the VM, after which threads attached by the bridge are no
// longer detached on release.
func SetJavaVM(vm jni.VM) {
	if vm == nil {
		javaVM.Store(nil)
		log().Info("java vm unregistered")
		return
	}
	javaVM.Store(&vmBox{vm: vm})
	log().Info("java vm registered", zap.String("type", typeName(vm)))
}

// JavaVM returns the registered VM. When none is registered and automatic
// detection is enabled, the first call looks for a VM already created in
// the process and registers it. It returns nil if no VM is available.
func JavaVM() jni.VM {
	if vm := currentVM(); vm != nil {
		return vm
	}
	if !detectEnabled.Load() {
		return nil
	}
	return autoDetect()
}

// SetAutoDetect enables or disables automatic detection of a running VM.
func SetAutoDetect(enabled bool) {
	detectEnabled.Store(enabled)
}

// currentVM returns the registered VM without attempting detection.
func currentVM() jni.VM {
	if b := javaVM.Load(); b != nil {
		return b.vm
	}
	return nil
}

func autoDetect() jni.VM {
	detectMu.Lock()
	defer detectMu.Unlock()
	if vm := currentVM(); vm != nil {
		return vm
	}
	if detectFailed {
		return nil
	}
	vm, err := detectVM(detectLibrary)
	if err != nil {
		// A loaded library without a VM may still get one later.
		if !errors.Is(err, jvm.ErrNoVM) {
			detectFailed = true
		}
		log().Debug("java vm detection failed", zap.Error(err))
		return nil
	}
	javaVM.Store(&vmBox{vm: vm})
	log().Info("java vm detected", zap.String("type", typeName(vm)))
	return vm
}

// resetDetection forgets a failed detection and sets the library path used
// by the next attempt.
func resetDetection(libraryPath string) {
	detectMu.Lock()
	defer detectMu.Unlock()
	detectFailed = false
	detectLibrary = libraryPath
}

func typeName(v any) string { return fmt.Sprintf("%T", v) }
