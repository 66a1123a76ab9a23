package cmd

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/CEA-LIST/sgntx/pkg/config"
	"github.com/CEA-LIST/sgntx/pkg/di"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a default vcfbin configuration file.

Examples:
  vcfbin init
  vcfbin init --config ./vcfbin.yaml --api-key`,
	Args: cobra.NoArgs,
	// The config file may not exist yet, so skip loading it.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			container = di.NewContainer()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		force, _ := cmd.Flags().GetBool("force")
		withKey, _ := cmd.Flags().GetBool("api-key")

		return runInit(path, force, withKey, cmd.OutOrStdout())
	},
}

func runInit(path string, force, withKey bool, out io.Writer) error {
	if config.ConfigExists(path) && !force {
		return errors.Newf("config file already exists at %s (use --force to overwrite)", path)
	}

	cfg, err := config.BootstrapConfig(path, withKey)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote configuration to %s\n", path)
	fmt.Fprintf(out, "Mode: %s, input: %s, output: %s\n", cfg.Mode, cfg.InputDir, cfg.OutputDir)
	if cfg.Server.APIKey != "" {
		fmt.Fprintf(out, "API key: %s\n", cfg.Server.APIKey)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	initCmd.Flags().Bool("api-key", false, "Generate an API key for the HTTP server")
}
