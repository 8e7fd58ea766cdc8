package qjni

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/2gis/qtandroidextensions-sub000/internal/platform"
	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvLibraryPath = "QJNI_JVM_LIB"
	EnvJavaHome    = "JAVA_HOME"
	EnvVMOptions   = "QJNI_JVM_OPTIONS"
)

// Config controls Init.
type Config struct {
	// LibraryPath is the JVM library to load. It takes precedence over
	// JavaHome.
	LibraryPath string
	// JavaHome is searched for the JVM library when LibraryPath is empty.
	JavaHome string
	// Version is the JNI version requested from a created VM; zero selects
	// 1.6.
	Version int32
	// Options are passed to a created VM, e.g. "-Djava.class.path=app.jar".
	Options []string
	// Preload lists classes resolved by Init. A class that cannot be
	// resolved fails Init.
	Preload []string
	// AutoDetect looks for a VM already running in the process.
	AutoDetect bool
	// Create boots a VM when none was detected.
	Create bool
}

// ConfigFromEnv returns a Config that detects a running VM and, when
// QJNI_JVM_OPTIONS is set, creates one with those options.
func ConfigFromEnv() Config {
	cfg := Config{
		LibraryPath: os.Getenv(EnvLibraryPath),
		JavaHome:    os.Getenv(EnvJavaHome),
		Options:     strings.Fields(os.Getenv(EnvVMOptions)),
		AutoDetect:  true,
	}
	cfg.Create = len(cfg.Options) > 0
	return cfg
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	if !c.AutoDetect && !c.Create {
		errs = append(errs, errors.New("one of AutoDetect or Create must be set"))
	}
	switch c.Version {
	case 0, jni.Version1_2, jni.Version1_4, jni.Version1_6, jni.Version1_8:
	default:
		errs = append(errs, fmt.Errorf("unsupported JNI version %#x", c.Version))
	}
	if len(c.Options) > 0 && !c.Create {
		errs = append(errs, errors.New("VM options require Create"))
	}
	for i, name := range c.Preload {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("preload entry %d is empty", i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("qjni: invalid config: %w", err)
	}
	return nil
}

// libraryPath returns the JVM library to load, or "" for the default search
// path.
func (c *Config) libraryPath() (string, error) {
	if c.LibraryPath != "" || c.JavaHome == "" {
		return c.LibraryPath, nil
	}
	for _, dir := range platform.JavaHomeLibraryDirs(c.JavaHome) {
		for _, name := range platform.VMLibraryNames() {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("qjni: no JVM library below %s=%s", EnvJavaHome, c.JavaHome)
}
