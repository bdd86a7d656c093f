package platform

import (
	"os"
	"path/filepath"
	"runtime"
)

// Platform represents the operating system platform
type Platform string

const (
	Windows Platform = "windows"
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// Detect returns the current platform
func Detect() Platform {
	switch runtime.GOOS {
	case "windows":
		return Windows
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// SupportsDiskInventory reports whether physical disks can be enumerated here
func SupportsDiskInventory() bool {
	return Detect() == Windows
}

// GetUserConfigDir returns the user's config directory
func GetUserConfigDir() (string, error) {
	switch Detect() {
	case Windows, MacOS:
		return os.UserConfigDir()
	default:
		// Try XDG_CONFIG_HOME first
		if configDir := os.Getenv("XDG_CONFIG_HOME"); configDir != "" {
			return configDir, nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, ".config"), nil
	}
}

// IsHidden reports whether a file is hidden.
// Windows consults FILE_ATTRIBUTE_HIDDEN; other systems use the dot-prefix convention.
func IsHidden(path string) bool {
	return isHidden(path)
}

// Errors
var (
	ErrUnsupportedPlatform = &PlatformError{"unsupported platform"}
)

// PlatformError represents a platform-related error
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}
