//go:build (linux || darwin) && (amd64 || arm64)

package bindings

import (
	"testing"
)

func TestLibrarySearchPathsHonoursOverride(t *testing.T) {
	t.Setenv("QJNI_JVM_DIR", "/custom/jvm")
	paths := LibrarySearchPaths()
	if len(paths) == 0 || paths[0] != "/custom/jvm" {
		t.Errorf("QJNI_JVM_DIR should be searched first, got %v", paths)
	}
}

func TestFindLibrary(t *testing.T) {
	// We don't fail if no JDK is installed - just log
	path, err := FindLibrary()
	if err != nil {
		t.Logf("JVM library not found (expected if no JDK is installed): %v", err)
		return
	}
	t.Logf("JVM library found at %s", path)
}

func TestCreatedJavaVMsBeforeLoad(t *testing.T) {
	if IsLoaded() {
		t.Skip("library already loaded by another test")
	}
	if _, err := CreatedJavaVMs(); err != ErrNotLoaded {
		t.Errorf("CreatedJavaVMs before Load = %v, want ErrNotLoaded", err)
	}
}

// Integration test - only runs if a JDK is available
func TestLoadJVM(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping JVM load test in short mode")
	}
	if _, err := FindLibrary(); err != nil {
		t.Skipf("JVM not available: %v", err)
	}

	if err := Load(""); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !IsLoaded() {
		t.Error("IsLoaded should be true after successful Load")
	}
	if Path() == "" {
		t.Error("Path should be recorded after Load")
	}

	vms, err := CreatedJavaVMs()
	if err != nil {
		t.Fatalf("CreatedJavaVMs failed: %v", err)
	}
	t.Logf("JVM library %s, %d VM(s) already created", Path(), len(vms))
}
