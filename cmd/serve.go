package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/hexblog/hexblog/internal/api"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Hex Blog server",
	Long:  `Start the Hex Blog web server. The server shuts down gracefully on SIGINT or SIGTERM.`,
	Example: `hexblog serve --config config.yml
hexblog serve -c /path/to/config.yml --log-level debug
`,
	RunE: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	log.Info("page cache ready", "type", a.pages.Type())

	server, err := api.New(a.cfg, a.auth, a.blog, log.GetLevel() == log.DebugLevel)
	if err != nil {
		return err
	}

	log.Info("hexblog started successfully", "site", a.cfg.SiteName)
	if err := server.Run(cmd.Context()); err != nil {
		log.Error("server error", "error", err)
		return err
	}
	log.Info("shut down gracefully")
	return nil
}
