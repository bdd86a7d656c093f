package security

import (
	"runtime"
	"strings"
	"testing"
)

func TestValidateRoot(t *testing.T) {
	rv := NewRootValidator()

	tests := []struct {
		name        string
		path        string
		shouldError bool
		errorMsg    string
	}{
		{"empty root", "", true, "must not be empty"},
		{"blank root", "   ", true, "must not be empty"},
		{"nul byte", "/tmp/a\x00b", true, "NUL byte"},
		{"relative root", ".", false, ""},
		{"ordinary directory", "/home/user/data", false, ""},
	}

	if runtime.GOOS != "windows" {
		tests = append(tests,
			struct {
				name        string
				path        string
				shouldError bool
				errorMsg    string
			}{"proc", "/proc", true, "virtual filesystem"},
			struct {
				name        string
				path        string
				shouldError bool
				errorMsg    string
			}{"under sys", "/sys/class/block", true, "virtual filesystem"},
		)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rv.ValidateRoot(tt.path)

			if tt.shouldError {
				if err == nil {
					t.Errorf("Expected error for root '%s', got nil", tt.path)
				} else if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing '%s', got: %v", tt.errorMsg, err)
				}
			} else if err != nil {
				t.Errorf("Expected no error for root '%s', got: %v", tt.path, err)
			}
		})
	}
}

func TestIsVirtualPath(t *testing.T) {
	rv := NewRootValidator()

	tests := []struct {
		path     string
		expected bool
	}{
		{"/proc", true},
		{"/proc/1/fd", true},
		{"/dev/", true},
		{"/devices", false},
		{"/processes", false},
		{"/home/user", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := rv.IsVirtualPath(tt.path); got != tt.expected {
				t.Errorf("IsVirtualPath(%s) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestAddVirtualPath(t *testing.T) {
	rv := NewRootValidator()

	if rv.IsVirtualPath("/mnt/fuse") {
		t.Fatal("/mnt/fuse should not be virtual before it is added")
	}
	rv.AddVirtualPath("/mnt/fuse/")
	if !rv.IsVirtualPath("/mnt/fuse/x") {
		t.Error("/mnt/fuse/x should be virtual after adding /mnt/fuse")
	}
}
