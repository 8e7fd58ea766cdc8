package qjni

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2gis/qtandroidextensions-sub000/internal/platform"
	"github.com/2gis/qtandroidextensions-sub000/jni"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvLibraryPath, "/opt/jdk/lib/server/libjvm.so")
	t.Setenv(EnvJavaHome, "/opt/jdk")
	t.Setenv(EnvVMOptions, " -Xmx64m   -Djava.class.path=app.jar ")

	want := Config{
		LibraryPath: "/opt/jdk/lib/server/libjvm.so",
		JavaHome:    "/opt/jdk",
		Options:     []string{"-Xmx64m", "-Djava.class.path=app.jar"},
		AutoDetect:  true,
		Create:      true,
	}
	if diff := cmp.Diff(want, ConfigFromEnv()); diff != "" {
		t.Errorf("ConfigFromEnv() mismatch (-want +got):\n%s", diff)
	}

	t.Setenv(EnvVMOptions, "")
	cfg := ConfigFromEnv()
	assert.False(t, cfg.Create)
	assert.Empty(t, cfg.Options)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "detect", cfg: Config{AutoDetect: true}},
		{name: "create with options", cfg: Config{Create: true, Version: jni.Version1_8, Options: []string{"-Xss1m"}}},
		{name: "nothing to do", cfg: Config{}, wantErr: "one of AutoDetect or Create"},
		{name: "bad version", cfg: Config{Create: true, Version: 0x00090000}, wantErr: "unsupported JNI version 0x90000"},
		{name: "options without create", cfg: Config{AutoDetect: true, Options: []string{"-Xss1m"}}, wantErr: "VM options require Create"},
		{name: "empty preload", cfg: Config{AutoDetect: true, Preload: []string{"java/lang/String", " "}}, wantErr: "preload entry 1 is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "qjni: invalid config")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigLibraryPath(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, "lib", "server")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	lib := filepath.Join(dir, platform.VMLibraryNames()[0])
	require.NoError(t, os.WriteFile(lib, nil, 0o644))

	cfg := Config{JavaHome: home}
	got, err := cfg.libraryPath()
	require.NoError(t, err)
	assert.Equal(t, lib, got)

	cfg.LibraryPath = "/explicit/libjvm.so"
	got, err = cfg.libraryPath()
	require.NoError(t, err)
	assert.Equal(t, "/explicit/libjvm.so", got)

	got, err = (&Config{}).libraryPath()
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = (&Config{JavaHome: t.TempDir()}).libraryPath()
	assert.ErrorContains(t, err, "no JVM library below JAVA_HOME")
}
