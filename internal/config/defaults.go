package config

import (
	"github.com/spf13/viper"

	"github.com/fenilsonani/diskscout/internal/disks"
	"github.com/fenilsonani/diskscout/pkg/utils"
)

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		Scan: ScanConfig{
			HashAlgorithm:   string(utils.HashBLAKE3),
			PrefixCheckSize: "4KB",
			RefuseRoots:     []string{},
		},
		Classification: ClassificationConfig{
			ExtraExtensions:  []ExtensionMapping{},
			CustomSignatures: []SignatureConfig{},
		},
		Disks: DisksConfig{
			SystemNamespace:  disks.SystemNamespace,
			StorageNamespace: disks.StorageNamespace,
		},
		Output: OutputConfig{
			Format: "summary",
		},
		Verbose:  false,
		LogLevel: "error",
	}
}

// setDefaults registers every scalar default with v so that environment
// overrides are picked up for keys absent from the file.
func setDefaults(v *viper.Viper) {
	d := GetDefault()

	v.SetDefault("scan.hash_algorithm", d.Scan.HashAlgorithm)
	v.SetDefault("scan.prefix_check_size", d.Scan.PrefixCheckSize)
	v.SetDefault("scan.refuse_roots", d.Scan.RefuseRoots)
	v.SetDefault("classification.extra_extensions", []map[string]any{})
	v.SetDefault("classification.custom_signatures", []map[string]any{})
	v.SetDefault("disks.system_namespace", d.Disks.SystemNamespace)
	v.SetDefault("disks.storage_namespace", d.Disks.StorageNamespace)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.no_color", d.Output.NoColor)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("log_level", d.LogLevel)
}
