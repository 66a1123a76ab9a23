package cmd

import (
	"github.com/spf13/cobra"

	"github.com/CEA-LIST/sgntx/pkg/api"
	"github.com/CEA-LIST/sgntx/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the vcfbin REST API server. It encodes and decodes record streams and
exposes the run catalog. Requests need an X-API-Key header when a key is set.

Examples:
  vcfbin serve --port 8080
  vcfbin serve --api-key mysecretkey --bind 0.0.0.0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)
		cfg := container.Config()
		flags := cmd.Flags()

		serverConfig := api.ServerConfig{
			Port:   cfg.Server.Port,
			Bind:   cfg.Server.Bind,
			APIKey: cfg.Server.APIKey,
		}
		if flags.Changed("port") {
			serverConfig.Port, _ = flags.GetInt("port")
		}
		if flags.Changed("bind") {
			serverConfig.Bind, _ = flags.GetString("bind")
		}
		if flags.Changed("api-key") {
			serverConfig.APIKey, _ = flags.GetString("api-key")
		}

		mode, err := cfg.CodecMode()
		if err != nil {
			return err
		}
		serverConfig.DefaultMode = mode

		if serverConfig.APIKey == "" {
			log.Warn("no API key configured, authentication is disabled")
		}

		var runs api.RunStore
		if cat, err := container.Catalog(); err != nil {
			log.Warn("run catalog unavailable, /runs endpoints disabled", "error", err)
		} else {
			runs = cat
		}

		server := api.NewServer(runs, serverConfig, container.Metrics(), log)
		return server.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind to")
	serveCmd.Flags().String("api-key", "", "API key required in the X-API-Key header")
}
