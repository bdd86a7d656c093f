package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/diskscout/internal/classifier"
	"github.com/fenilsonani/diskscout/internal/platform"
	"github.com/fenilsonani/diskscout/internal/scanner"
	"github.com/fenilsonani/diskscout/internal/security"
	"github.com/fenilsonani/diskscout/pkg/utils"
)

// EnvPrefix prefixes environment overrides, e.g. DISKSCOUT_SCAN_HASH_ALGORITHM
const EnvPrefix = "DISKSCOUT"

// Output formats understood by the reporter
var validFormats = []string{"summary", "table", "json", "yaml"}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Config represents the application configuration
type Config struct {
	Scan           ScanConfig           `yaml:"scan" mapstructure:"scan"`
	Classification ClassificationConfig `yaml:"classification" mapstructure:"classification"`
	Disks          DisksConfig          `yaml:"disks" mapstructure:"disks"`
	Output         OutputConfig         `yaml:"output" mapstructure:"output"`
	Verbose        bool                 `yaml:"verbose" mapstructure:"verbose"`
	LogLevel       string               `yaml:"log_level" mapstructure:"log_level"`
}

// ScanConfig tunes directory walks and duplicate detection
type ScanConfig struct {
	HashAlgorithm   string   `yaml:"hash_algorithm" mapstructure:"hash_algorithm"`       // "blake3" or "sha256"
	PrefixCheckSize string   `yaml:"prefix_check_size" mapstructure:"prefix_check_size"` // e.g. "4KB", "0" disables
	RefuseRoots     []string `yaml:"refuse_roots" mapstructure:"refuse_roots"`           // extra directories never scanned
}

// ClassificationConfig extends the content classifier
type ClassificationConfig struct {
	ExtraExtensions  []ExtensionMapping `yaml:"extra_extensions" mapstructure:"extra_extensions"`
	CustomSignatures []SignatureConfig  `yaml:"custom_signatures" mapstructure:"custom_signatures"`
}

// ExtensionMapping accepts additional extensions for a MIME type
type ExtensionMapping struct {
	MIME       string   `yaml:"mime" mapstructure:"mime"`
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
}

// SignatureConfig declares a magic number reported under the Custom category
type SignatureConfig struct {
	MIME      string `yaml:"mime" mapstructure:"mime"`
	Extension string `yaml:"extension" mapstructure:"extension"`
	Magic     string `yaml:"magic" mapstructure:"magic"` // hex, spaces allowed
	Offset    int    `yaml:"offset" mapstructure:"offset"`
}

// DisksConfig selects the WMI namespaces used for disk inventory
type DisksConfig struct {
	SystemNamespace  string `yaml:"system_namespace" mapstructure:"system_namespace"`
	StorageNamespace string `yaml:"storage_namespace" mapstructure:"storage_namespace"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format"`
	NoColor bool   `yaml:"no_color" mapstructure:"no_color"`
}

// Load loads configuration from a file, layering DISKSCOUT_* environment
// variables on top. A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !utils.HashAlgorithm(c.Scan.HashAlgorithm).Valid() {
		return fmt.Errorf("unsupported hash algorithm %q", c.Scan.HashAlgorithm)
	}

	if _, err := c.PrefixCheckBytes(); err != nil {
		return err
	}

	for _, root := range c.Scan.RefuseRoots {
		if strings.TrimSpace(root) == "" {
			return fmt.Errorf("refuse_roots contains an empty path")
		}
	}

	for _, m := range c.Classification.ExtraExtensions {
		if m.MIME == "" {
			return fmt.Errorf("extra extension mapping has no MIME type")
		}
		if len(m.Extensions) == 0 {
			return fmt.Errorf("extra extension mapping for %s lists no extensions", m.MIME)
		}
	}

	if _, err := c.signatures(); err != nil {
		return err
	}

	if !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("unknown output format %q (want one of %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if c.LogLevel != "" && !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	return nil
}

// PrefixCheckBytes returns the parsed prefix pre-filter size. An empty value
// or "0" disables the pre-filter.
func (c *Config) PrefixCheckBytes() (int64, error) {
	s := strings.TrimSpace(c.Scan.PrefixCheckSize)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := utils.ParseSize(s)
	if err != nil {
		return 0, fmt.Errorf("invalid prefix_check_size: %w", err)
	}
	return int64(n), nil
}

// ScannerOptions converts the scan section into scanner options
func (c *Config) ScannerOptions() (scanner.Options, error) {
	prefix, err := c.PrefixCheckBytes()
	if err != nil {
		return scanner.Options{}, err
	}
	return scanner.Options{
		HashAlgorithm:    utils.HashAlgorithm(c.Scan.HashAlgorithm),
		PrefixCheckBytes: prefix,
	}, nil
}

// RootValidator returns a scan-root validator that also refuses the
// configured refuse_roots
func (c *Config) RootValidator() *security.RootValidator {
	rv := security.NewRootValidator()
	for _, root := range c.Scan.RefuseRoots {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		rv.AddVirtualPath(root)
	}
	return rv
}

// ClassifierOptions converts the classification section into classifier options
func (c *Config) ClassifierOptions() (classifier.Options, error) {
	sigs, err := c.signatures()
	if err != nil {
		return classifier.Options{}, err
	}

	var extra map[string][]string
	if len(c.Classification.ExtraExtensions) > 0 {
		extra = make(map[string][]string, len(c.Classification.ExtraExtensions))
		for _, m := range c.Classification.ExtraExtensions {
			extra[m.MIME] = append(extra[m.MIME], m.Extensions...)
		}
	}

	return classifier.Options{ExtraExtensions: extra, Signatures: sigs}, nil
}

func (c *Config) signatures() ([]classifier.Signature, error) {
	sigs := make([]classifier.Signature, 0, len(c.Classification.CustomSignatures))
	for _, sc := range c.Classification.CustomSignatures {
		sig, err := classifier.ParseSignature(sc.MIME, sc.Extension, sc.Magic, sc.Offset)
		if err != nil {
			return nil, fmt.Errorf("invalid custom signature: %w", err)
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	configDir, err := platform.GetUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "diskscout", "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(GetDefault(), configPath); err != nil {
			return "", err
		}
	}

	return configPath, nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
