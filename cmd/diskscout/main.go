package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/diskscout/internal/classifier"
	"github.com/fenilsonani/diskscout/internal/config"
	"github.com/fenilsonani/diskscout/internal/disks"
	"github.com/fenilsonani/diskscout/internal/platform"
	"github.com/fenilsonani/diskscout/internal/progress"
	"github.com/fenilsonani/diskscout/internal/reporter"
	"github.com/fenilsonani/diskscout/internal/scanner"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath   string
	verbose      bool
	outputFmt    string
	outputFile   string
	noColor      bool
	showProgress bool

	pattern    string
	recentDays uint64
	largest    int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "diskscout",
	Short: "Inspect disks and the files on them",
	Long: `diskscout lists physical disks and partitions, walks directory trees,
finds duplicate files and detects files whose extension does not match
their content.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var filesCmd = &cobra.Command{
	Use:   "files <root>",
	Short: "List files under a directory",
	Long: `Lists every regular file under root. Use --pattern to filter by name,
--recent to keep files modified in the last N days, or --largest to keep the
N biggest files.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.cfg.RootValidator().ValidateRoot(args[0]); err != nil {
			return err
		}

		root := args[0]
		scnr, done := app.newScanner()

		var (
			result *scanner.ScanResult
			title  string
		)
		switch {
		case cmd.Flags().Changed("pattern"):
			title = fmt.Sprintf("Files matching %q", pattern)
			result, err = scnr.FindByPattern(root, pattern)
		case cmd.Flags().Changed("recent"):
			title = fmt.Sprintf("Files modified in the last %d days", recentDays)
			result, err = scnr.FindRecentlyModified(root, recentDays)
		case cmd.Flags().Changed("largest"):
			title = fmt.Sprintf("Largest %d files", largest)
			result, err = scnr.FindLargest(root, largest)
		default:
			title = "Files"
			result, err = scnr.ListFiles(root)
		}
		done()
		if err != nil {
			app.logger.Error("Scan failed", zap.String("root", root), zap.Error(err))
			return fmt.Errorf("scan failed: %w", err)
		}

		return app.render(func(r *reporter.Reporter) error {
			return r.ReportFiles(title, result)
		})
	},
}

var sizeCmd = &cobra.Command{
	Use:   "size <root>",
	Short: "Report the total size of a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.cfg.RootValidator().ValidateRoot(args[0]); err != nil {
			return err
		}

		scnr, done := app.newScanner()
		size, err := scnr.DirectorySize(args[0])
		done()
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		return app.render(func(r *reporter.Reporter) error {
			return r.ReportSize(args[0], size)
		})
	},
}

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates <root>",
	Short: "Find files with identical content",
	Long: `Finds groups of files with identical content. Files are grouped by size
first and only same-sized files are hashed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.cfg.RootValidator().ValidateRoot(args[0]); err != nil {
			return err
		}

		scnr, done := app.newScanner()
		result, err := scnr.FindDuplicates(args[0])
		done()
		if err != nil {
			return fmt.Errorf("duplicate scan failed: %w", err)
		}

		return app.render(func(r *reporter.Reporter) error {
			return r.ReportDuplicates(result)
		})
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify <root>",
	Short: "Group files by detected content type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.cfg.RootValidator().ValidateRoot(args[0]); err != nil {
			return err
		}

		records, err := app.listFiles(args[0])
		if err != nil {
			return err
		}
		cls, err := app.newClassifier()
		if err != nil {
			return err
		}
		id := cls.IdentifyFiles(records)

		return app.render(func(r *reporter.Reporter) error {
			return r.ReportIdentification(id)
		})
	},
}

var mismatchedCmd = &cobra.Command{
	Use:   "mismatched <root>",
	Short: "Find files whose extension does not match their content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.cfg.RootValidator().ValidateRoot(args[0]); err != nil {
			return err
		}

		records, err := app.listFiles(args[0])
		if err != nil {
			return err
		}
		cls, err := app.newClassifier()
		if err != nil {
			return err
		}
		mismatches := cls.FindMismatchedExtensions(records)

		return app.render(func(r *reporter.Reporter) error {
			return r.ReportMismatches(mismatches)
		})
	},
}

var disksCmd = &cobra.Command{
	Use:   "disks",
	Short: "List physical disks and their partitions (Windows)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !platform.SupportsDiskInventory() {
			return fmt.Errorf("disk inventory on %s: %w", platform.Detect(), platform.ErrUnsupportedPlatform)
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		mapper, err := disks.NewWMIMapper(app.cfg.Disks.SystemNamespace, app.cfg.Disks.StorageNamespace, app.logger)
		if err != nil {
			return fmt.Errorf("failed to open disk query backend: %w", err)
		}
		inv, err := mapper.Inventory()
		if err != nil {
			app.logger.Error("Disk inventory failed", zap.Error(err))
			return err
		}

		return app.render(func(r *reporter.Reporter) error {
			return r.ReportDisks(inv)
		})
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			if err := config.Save(config.GetDefault(), configPath); err != nil {
				return err
			}
			fmt.Printf("Config file written to: %s\n", configPath)
			return nil
		}

		path, err := config.EnsureConfigExists()
		if err != nil {
			return err
		}
		fmt.Printf("Config file: %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		fmt.Printf("# %s\n", path)
		encoder := yaml.NewEncoder(os.Stdout)
		defer encoder.Close()
		return encoder.Encode(cfg)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "output", "", "output format (summary, table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFile, "file", "", "save report to file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&showProgress, "progress", false, "show a progress line while scanning")

	// Files command flags
	filesCmd.Flags().StringVar(&pattern, "pattern", "", "only files whose name contains this text (case-sensitive)")
	filesCmd.Flags().Uint64Var(&recentDays, "recent", 0, "only files modified in the last N days")
	filesCmd.Flags().IntVar(&largest, "largest", 0, "only the N largest files")
	filesCmd.MarkFlagsMutuallyExclusive("pattern", "recent", "largest")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	// Add commands
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(sizeCmd)
	rootCmd.AddCommand(duplicatesCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(mismatchedCmd)
	rootCmd.AddCommand(disksCmd)
	rootCmd.AddCommand(configCmd)
}

// app bundles what every command needs
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Verbose = true
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// newScanner returns a scanner and a func that clears any progress line
func (a *app) newScanner() (*scanner.Scanner, func()) {
	opts, err := a.cfg.ScannerOptions()
	if err != nil {
		// Validate already parsed these options
		a.logger.Warn("Invalid scan options, using defaults", zap.Error(err))
	}
	scnr := scanner.New(nil, a.logger, opts)

	if !showProgress {
		return scnr, func() {}
	}
	printer := progress.NewPrinter(os.Stderr, progress.DefaultInterval)
	scnr.SetProgressCallback(printer.Update)
	return scnr, printer.Done
}

func (a *app) newClassifier() (*classifier.Classifier, error) {
	opts, err := a.cfg.ClassifierOptions()
	if err != nil {
		return nil, err
	}
	return classifier.New(nil, a.logger, opts), nil
}

func (a *app) listFiles(root string) ([]scanner.FileRecord, error) {
	scnr, done := a.newScanner()
	result, err := scnr.ListFiles(root)
	done()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return result.Files, nil
}

func (a *app) render(fn func(*reporter.Reporter) error) error {
	format := reporter.OutputFormat(a.cfg.Output.Format)
	if outputFmt != "" {
		format = reporter.OutputFormat(outputFmt)
	}

	if outputFile != "" {
		if err := reporter.SaveToFile(outputFile, format, fn); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		fmt.Printf("Report saved to: %s\n", outputFile)
		return nil
	}

	rep := reporter.New(os.Stdout, format)
	rep.SetColor(!noColor && !a.cfg.Output.NoColor)
	if err := fn(rep); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	return nil
}

// newLogger builds a development logger when verbose, otherwise a quiet
// JSON logger on stderr at the configured level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Verbose {
		return zap.NewDevelopment()
	}

	level := zapcore.ErrorLevel
	if cfg.LogLevel != "" {
		parsed, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "json",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
	}
	return zcfg.Build()
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

func loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

