package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fenilsonani/diskscout/pkg/utils"
)

// =============================================================================
// GetDefault Tests
// =============================================================================

func TestGetDefault(t *testing.T) {
	cfg := GetDefault()

	if cfg == nil {
		t.Fatal("GetDefault returned nil")
	}

	if cfg.Scan.HashAlgorithm != "blake3" {
		t.Errorf("expected blake3 hash by default, got %q", cfg.Scan.HashAlgorithm)
	}
	if cfg.Scan.PrefixCheckSize != "4KB" {
		t.Errorf("expected PrefixCheckSize '4KB', got %q", cfg.Scan.PrefixCheckSize)
	}
	if cfg.Output.Format != "summary" {
		t.Errorf("expected summary output, got %q", cfg.Output.Format)
	}
	if cfg.Disks.StorageNamespace != `ROOT\Microsoft\Windows\Storage` {
		t.Errorf("unexpected storage namespace %q", cfg.Disks.StorageNamespace)
	}
	if cfg.Verbose {
		t.Error("expected Verbose to be disabled by default")
	}
}

func TestGetDefaultIsValid(t *testing.T) {
	if err := GetDefault().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

// =============================================================================
// Load Tests
// =============================================================================

func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load should not error for non-existent file: %v", err)
	}

	if cfg.Scan.HashAlgorithm != "blake3" {
		t.Errorf("expected default hash algorithm, got %q", cfg.Scan.HashAlgorithm)
	}
	if cfg.Output.Format != "summary" {
		t.Errorf("expected default format, got %q", cfg.Output.Format)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.Disks.SystemNamespace != `ROOT\CIMV2` {
		t.Errorf("unexpected system namespace %q", cfg.Disks.SystemNamespace)
	}
}

func TestLoadValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
scan:
  hash_algorithm: sha256
  prefix_check_size: 64KB
classification:
  extra_extensions:
    - mime: image/jpeg
      extensions: [jfif, jpe]
    - mime: application/vnd.ms-excel
      extensions: [xlt]
  custom_signatures:
    - mime: application/x-diskscout-test
      extension: dst
      magic: "CA FE BA BE"
      offset: 2
output:
  format: json
  no_color: true
verbose: true
log_level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scan.HashAlgorithm != "sha256" {
		t.Errorf("expected sha256, got %q", cfg.Scan.HashAlgorithm)
	}
	if n, _ := cfg.PrefixCheckBytes(); n != 64*1024 {
		t.Errorf("expected 65536 prefix bytes, got %d", n)
	}
	if len(cfg.Classification.ExtraExtensions) != 2 {
		t.Fatalf("expected 2 extension mappings, got %d", len(cfg.Classification.ExtraExtensions))
	}
	if cfg.Classification.ExtraExtensions[1].MIME != "application/vnd.ms-excel" {
		t.Errorf("MIME with dots should survive decoding, got %q", cfg.Classification.ExtraExtensions[1].MIME)
	}
	if len(cfg.Classification.CustomSignatures) != 1 || cfg.Classification.CustomSignatures[0].Offset != 2 {
		t.Errorf("unexpected custom signatures: %+v", cfg.Classification.CustomSignatures)
	}
	if cfg.Output.Format != "json" || !cfg.Output.NoColor {
		t.Errorf("unexpected output config: %+v", cfg.Output)
	}
	if !cfg.Verbose {
		t.Error("expected Verbose to be true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug log level, got %q", cfg.LogLevel)
	}
	// Keys absent from the file keep their defaults
	if cfg.Disks.StorageNamespace != `ROOT\Microsoft\Windows\Storage` {
		t.Errorf("expected default storage namespace, got %q", cfg.Disks.StorageNamespace)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("scan: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"hash algorithm", "scan:\n  hash_algorithm: md5\n", "hash algorithm"},
		{"prefix size", "scan:\n  prefix_check_size: lots\n", "prefix_check_size"},
		{"output format", "output:\n  format: xml\n", "output format"},
		{"log level", "log_level: chatty\n", "log level"},
		{"signature magic", "classification:\n  custom_signatures:\n    - mime: a/b\n      magic: XYZ\n", "custom signature"},
		{"mapping without mime", "classification:\n  extra_extensions:\n    - extensions: [abc]\n", "no MIME"},
		{"empty refused root", "scan:\n  refuse_roots: [\"\"]\n", "refuse_roots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			_, err := Load(configPath)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("DISKSCOUT_SCAN_HASH_ALGORITHM", "sha256")
	t.Setenv("DISKSCOUT_OUTPUT_FORMAT", "yaml")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("output:\n  format: table\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scan.HashAlgorithm != "sha256" {
		t.Errorf("expected env override sha256, got %q", cfg.Scan.HashAlgorithm)
	}
	if cfg.Output.Format != "yaml" {
		t.Errorf("env should win over file, got %q", cfg.Output.Format)
	}
}

// =============================================================================
// Save Tests
// =============================================================================

func TestSaveCreatesDirectory(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	if err := Save(GetDefault(), configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("config file not created: %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	original := GetDefault()
	original.Scan.HashAlgorithm = "sha256"
	original.Scan.PrefixCheckSize = "0"
	original.Classification.ExtraExtensions = []ExtensionMapping{{MIME: "image/png", Extensions: []string{"apng"}}}
	original.Output.Format = "table"

	if err := Save(original, configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Scan.HashAlgorithm != "sha256" {
		t.Errorf("hash algorithm mismatch: %q", loaded.Scan.HashAlgorithm)
	}
	if n, _ := loaded.PrefixCheckBytes(); n != 0 {
		t.Errorf("expected disabled prefix check, got %d", n)
	}
	if len(loaded.Classification.ExtraExtensions) != 1 || loaded.Classification.ExtraExtensions[0].Extensions[0] != "apng" {
		t.Errorf("extension mapping mismatch: %+v", loaded.Classification.ExtraExtensions)
	}
	if loaded.Output.Format != "table" {
		t.Errorf("format mismatch: %q", loaded.Output.Format)
	}
}

// =============================================================================
// Conversion Tests
// =============================================================================

func TestScannerOptions(t *testing.T) {
	cfg := GetDefault()

	opts, err := cfg.ScannerOptions()
	if err != nil {
		t.Fatalf("ScannerOptions failed: %v", err)
	}
	if opts.HashAlgorithm != utils.HashBLAKE3 {
		t.Errorf("expected blake3, got %q", opts.HashAlgorithm)
	}
	if opts.PrefixCheckBytes != 4096 {
		t.Errorf("expected 4096 prefix bytes, got %d", opts.PrefixCheckBytes)
	}
}

func TestRootValidator(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "archive")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "scan:\n  refuse_roots:\n    - " + filepath.ToSlash(archive) + "\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Scan.RefuseRoots) != 1 {
		t.Fatalf("expected 1 refused root, got %v", cfg.Scan.RefuseRoots)
	}

	rv := cfg.RootValidator()
	if err := rv.ValidateRoot(filepath.Join(archive, "2023")); err == nil {
		t.Error("expected a root under refuse_roots to be rejected")
	}
	if err := rv.ValidateRoot(filepath.Dir(archive)); err != nil {
		t.Errorf("parent of a refused root should be allowed, got: %v", err)
	}
}

func TestClassifierOptions(t *testing.T) {
	cfg := GetDefault()
	cfg.Classification.ExtraExtensions = []ExtensionMapping{
		{MIME: "image/jpeg", Extensions: []string{"jfif"}},
		{MIME: "image/jpeg", Extensions: []string{"jpe"}},
	}
	cfg.Classification.CustomSignatures = []SignatureConfig{
		{MIME: "application/x-test", Extension: ".tst", Magic: "0102", Offset: 0},
	}

	opts, err := cfg.ClassifierOptions()
	if err != nil {
		t.Fatalf("ClassifierOptions failed: %v", err)
	}
	if got := opts.ExtraExtensions["image/jpeg"]; len(got) != 2 {
		t.Errorf("expected merged extensions, got %v", got)
	}
	if len(opts.Signatures) != 1 || opts.Signatures[0].Extension != "tst" {
		t.Errorf("unexpected signatures: %+v", opts.Signatures)
	}
}

func TestPrefixCheckBytesDisabled(t *testing.T) {
	for _, v := range []string{"", "0", "  "} {
		cfg := GetDefault()
		cfg.Scan.PrefixCheckSize = v
		n, err := cfg.PrefixCheckBytes()
		if err != nil || n != 0 {
			t.Errorf("PrefixCheckSize %q: got %d, %v", v, n, err)
		}
	}
}

// =============================================================================
// GetConfigPath Tests
// =============================================================================

func TestGetConfigPath(t *testing.T) {
	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath failed: %v", err)
	}

	if !filepath.IsAbs(path) {
		t.Errorf("expected absolute path, got %s", path)
	}
	if !strings.HasSuffix(path, filepath.Join("diskscout", "config.yaml")) {
		t.Errorf("unexpected config path %s", path)
	}
}
