package osutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUserHomeDirPrefersHOME(t *testing.T) {
	t.Setenv("HOME", "home")
	t.Setenv("USERPROFILE", "userProfile")

	got, err := UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}
	if got != "home" {
		t.Errorf("UserHomeDir() = %q, want %q", got, "home")
	}
}

func TestNormalizeFilePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("JOGGR_TEST_DIR", "settings")

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("os.Getwd() error = %v", err)
	}

	for _, tc := range []struct {
		in, want string
	}{
		{"", ""},
		{"~", home},
		{"~/joggr.cfg", filepath.Join(home, "joggr.cfg")},
		{"$HOME/.joggr/joggr.cfg", filepath.Join(home, ".joggr", "joggr.cfg")},
		{"$JOGGR_TEST_DIR/joggr.cfg", filepath.Join(cwd, "settings", "joggr.cfg")},
		{"/etc/joggr/joggr.cfg", filepath.FromSlash("/etc/joggr/joggr.cfg")},
	} {
		got, err := NormalizeFilePath(tc.in)
		if err != nil {
			t.Fatalf("NormalizeFilePath(%q) error = %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("NormalizeFilePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("os.WriteFile error = %v", err)
	}

	if !FileExists(path) {
		t.Errorf("FileExists(%q) = false, want true", path)
	}
	if FileExists(filepath.Join(dir, "absent")) {
		t.Errorf("FileExists(absent) = true, want false")
	}
}
