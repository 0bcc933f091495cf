package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/get-version/internal/config"
	"github.com/oshokin/get-version/internal/logger"
	"github.com/oshokin/get-version/internal/resolver"
	"github.com/oshokin/get-version/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// distName overrides the distribution name derived from the module name.
	distName string
	// searchPaths are extra directories scanned for installed metadata.
	searchPaths []string
	// logLevel overrides the diagnostic level from the settings file.
	logLevel string

	// rootCmd represents the base command for resolving package versions.
	rootCmd = &cobra.Command{
		Use:   "get-version <package-ref>",
		Short: "Determine the version of a package or module.",
		Long: `Determines the version string of a package or module and prints it to stdout.

The package reference is either a bare distribution name or the path to a
module file (module.py or a package's __init__.py). A path is resolved by
trying, in order: the containing directory's name (extracted sdist layout),
the version-control system governing the directory, and installed-package
metadata. A bare name is resolved via installed-package metadata only.

When every source fails, the error lists each source's reason so the whole
fallback chain is visible at a glance.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// VCS subprocesses have no timeout of their own; bound the whole
			// call and bail out on SIGTERM/SIGINT.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := loadSettings()
			if err != nil {
				return err
			}

			applyLogLevel(cfg)

			ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()

			opts := []resolver.Option{
				resolver.WithSearchPaths(append(cfg.SearchPaths, searchPaths...)...),
			}
			if distName != "" {
				opts = append(opts, resolver.WithDistName(distName))
			}

			resolved, err := resolver.GetVersion(ctx, args[0], opts...)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), resolved)

			return err
		},
	}
)

// Execute runs the get-version CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings reads the settings file. The default file is optional; an
// explicitly flagged one must exist.
func loadSettings() (*config.Config, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}

	cfg, err := config.Load(config.DefaultConfigFilename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}

		return nil, err
	}

	return cfg, nil
}

// applyLogLevel picks the diagnostic level: flag first, then settings file.
func applyLogLevel(cfg *config.Config) {
	candidate := logLevel
	if candidate == "" {
		candidate = cfg.LogLevel
	}

	if candidate == "" {
		return
	}

	if level, ok := logger.ParseLogLevel(candidate); ok {
		logger.SetLevel(level)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to configuration file")
	rootCmd.Flags().StringVarP(&distName, "dist-name", "n", "",
		"distribution name when it differs from the module name")
	rootCmd.Flags().StringArrayVarP(&searchPaths, "site", "s", nil,
		"directory scanned for installed-package metadata (repeatable)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "diagnostic log level (debug, info, warn, error)")
}
