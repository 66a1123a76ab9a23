package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/CEA-LIST/sgntx/pkg/config"
	"github.com/CEA-LIST/sgntx/pkg/di"
	"github.com/CEA-LIST/sgntx/pkg/logger"
)

var container *di.Container

// SetContainer injects the dependency container used by every command.
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vcfbin",
	Short: "vcfbin - VCF to binary variant record converter",
	Long: `vcfbin converts tab-separated variant call files into a compact binary
record stream, one record per variant line, in either a fixed 16-byte layout
or a variable-length layout that keeps the identifier as text.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			container = di.NewContainer()
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		container.SetConfig(cfg)

		log := logger.NewFromConfig(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		container.SetLogger(log)
		cmd.SetContext(logger.WithContext(cmd.Context(), log))
		return nil
	},
}

// loadConfig reads --config when given, the default path when it exists, or
// falls back to defaults. Logging flags override the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	explicit := cmd.Flags().Changed("config")

	cfg := config.DefaultConfig()
	if explicit || config.ConfigExists(path) {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format, _ = cmd.Flags().GetString("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := executeContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// executeContext runs the command tree and then closes the container. Cobra
// skips post-run hooks when RunE fails, so the close happens here.
func executeContext(ctx context.Context) (err error) {
	defer func() {
		if container == nil {
			return
		}
		if closeErr := container.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "close resources")
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.GetDefaultConfigPath(), "Path to the configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
}
