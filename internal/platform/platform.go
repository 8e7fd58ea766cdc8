// Package platform provides platform detection for qjni: where the Java
// virtual machine library lives and how the current OS thread is identified.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"
)

// Is64Bit indicates whether the platform is 64-bit.
// The purego backend only supports 64-bit platforms.
const Is64Bit = unsafe.Sizeof(uintptr(0)) == 8

// LibraryExtension is the file extension for shared libraries on this platform.
var LibraryExtension string

// LibraryPrefix is the prefix for shared library names on this platform.
var LibraryPrefix string

func init() {
	switch runtime.GOOS {
	case "darwin", "ios":
		LibraryExtension = ".dylib"
		LibraryPrefix = "lib"
	case "windows":
		LibraryExtension = ".dll"
		LibraryPrefix = ""
	default: // linux, android, freebsd
		LibraryExtension = ".so"
		LibraryPrefix = "lib"
	}
}

// FormatLibraryName returns the platform-specific library filename:
// "jvm" becomes "libjvm.so", "libjvm.dylib" or "jvm.dll".
func FormatLibraryName(name string) string {
	return fmt.Sprintf("%s%s%s", LibraryPrefix, name, LibraryExtension)
}

// VMLibraryNames returns the libraries exporting the JNI invocation API,
// most specific first. Android keeps JNI_GetCreatedJavaVMs in libnativehelper
// (API 31+) with libart as the fallback.
func VMLibraryNames() []string {
	if runtime.GOOS == "android" {
		return []string{"libnativehelper.so", "libart.so"}
	}
	return []string{FormatLibraryName("jvm")}
}

// JavaHomeLibraryDirs returns the directories below a JDK/JRE home that may
// contain the JVM library.
func JavaHomeLibraryDirs(javaHome string) []string {
	if javaHome == "" {
		return nil
	}
	arch := runtime.GOARCH
	if arch == "arm64" && runtime.GOOS == "linux" {
		arch = "aarch64"
	}
	return []string{
		filepath.Join(javaHome, "lib", "server"),
		filepath.Join(javaHome, "jre", "lib", "server"),
		filepath.Join(javaHome, "jre", "lib", arch, "server"),
		filepath.Join(javaHome, "lib"),
		filepath.Join(javaHome, "bin", "server"),
	}
}

// DefaultJavaHomes returns well-known JDK install locations for the platform.
func DefaultJavaHomes() []string {
	var homes []string
	if h := os.Getenv("JAVA_HOME"); h != "" {
		homes = append(homes, h)
	}
	switch runtime.GOOS {
	case "linux":
		if matches, err := filepath.Glob("/usr/lib/jvm/*"); err == nil {
			homes = append(homes, matches...)
		}
	case "darwin":
		if matches, err := filepath.Glob("/Library/Java/JavaVirtualMachines/*/Contents/Home"); err == nil {
			homes = append(homes, matches...)
		}
		homes = append(homes, "/opt/homebrew/opt/openjdk/libexec/openjdk.jdk/Contents/Home")
	}
	return homes
}

// GOOS returns the current operating system.
func GOOS() string {
	return runtime.GOOS
}

// GOARCH returns the current architecture.
func GOARCH() string {
	return runtime.GOARCH
}
