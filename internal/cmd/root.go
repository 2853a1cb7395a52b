package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/niels/plank/pkg/config"
	"github.com/niels/plank/pkg/logging"
	"github.com/niels/plank/pkg/server"
	"github.com/niels/plank/pkg/version"
	"github.com/spf13/cobra"

	// Register the bundled example apps
	_ "github.com/niels/plank/pkg/app/demo"
)

var (
	configPath  string
	port        int
	host        string
	debug       bool
	showVersion bool
	noColor     bool
	cfg         *config.Config
)

// NewRootCmd creates the root command for plank
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   version.AppName,
		Short: version.Description,
		Long: fmt.Sprintf(`%s - %s

Reads a startup descriptor naming an app, binds a TCP port and serves
the app until interrupted.
`, version.AppName, version.Description),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load the descriptor first so logging settings apply
			cfg = config.LoadOrDefault(configPath)

			logging.InitGlobalLogger(debug, cfg)
			logging.Info("Initializing plank")

			if debug {
				logging.Debug("Debug logging enabled")
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionInfo())
				return nil
			}

			color.NoColor = noColor || color.NoColor

			// Flags override both descriptor and environment
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}

			srv, err := server.New(cfg, debug, !noColor)
			if err != nil {
				logger := logging.GetLogger()
				logger.Error().Err(err).Msg("failed to build server")
				return fmt.Errorf("failed to build server: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			banner := func(addr string) {
				name := color.New(color.FgCyan, color.Bold).Sprint(version.AppName)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s listening on http://%s\n",
					name, version.Version, addr)
				fmt.Fprintf(cmd.OutOrStdout(), "Use Ctrl-C to stop\n")
			}

			if err := srv.ListenAndServe(ctx, banner); err != nil {
				logger := logging.GetLogger()
				logger.Error().Err(err).Msg("server failed")
				return err
			}

			srv.Tracker().Summary()
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "plank.yaml", "Path to the startup descriptor")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "TCP port to bind (overrides descriptor and PORT env)")
	rootCmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind (overrides descriptor)")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging and detailed error pages")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
