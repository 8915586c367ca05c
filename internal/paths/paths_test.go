package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func withGetwd(t *testing.T, dir string) {
	t.Helper()
	orig := getwdFn
	getwdFn = func() (string, error) { return dir, nil }
	t.Cleanup(func() { getwdFn = orig })
}

func withUserHomeDir(t *testing.T, dir string) {
	t.Helper()
	orig := userHomeDirFn
	userHomeDirFn = func() (string, error) { return dir, nil }
	t.Cleanup(func() { userHomeDirFn = orig })
}

func TestConfigFilePrefersProjectRoot(t *testing.T) {
	dir := t.TempDir()
	withGetwd(t, dir)
	withUserHomeDir(t, t.TempDir())

	want := filepath.Join(dir, "mcpd.yml")
	if err := os.WriteFile(want, []byte("services: {}\n"), 0o644); err != nil {
		t.Fatalf("seeding mcpd.yml: %v", err)
	}

	if got := ConfigFile(); got != want {
		t.Fatalf("ConfigFile() = %q, want %q", got, want)
	}
}

func TestConfigFileFallsBackToHome(t *testing.T) {
	dir := t.TempDir()
	home := t.TempDir()
	withGetwd(t, dir)
	withUserHomeDir(t, home)

	want := filepath.Join(home, ".config", "mcpd", "config.yml")
	if got := ConfigFile(); got != want {
		t.Fatalf("ConfigFile() = %q, want %q", got, want)
	}
}

func TestStateAndPidFilesAreProjectRelative(t *testing.T) {
	dir := t.TempDir()
	withGetwd(t, dir)

	if got, want := StateFile(), filepath.Join(dir, ".mcpd-state.json"); got != want {
		t.Fatalf("StateFile() = %q, want %q", got, want)
	}
	if got, want := PidFile(), filepath.Join(dir, ".mcpd.pid"); got != want {
		t.Fatalf("PidFile() = %q, want %q", got, want)
	}
}
