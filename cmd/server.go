package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/events"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the suggestion engine HTTP server",
	Long: `Starts the autofiler engine with its REST API, websocket event feed and
Prometheus metrics. Watchers and tray UIs talk to this process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverPort > 0 {
			cfg.Server.Port = serverPort
		}

		hub := events.NewHub()
		eng, database, err := openEngine(cmd.Context(), cfg, hub)
		if err != nil {
			return err
		}
		defer database.Close()

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAllOrigins,
		}, eng, hub)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "autofiler server v%s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", cfg.DatabasePath())
		fmt.Fprintf(os.Stderr, "  Allowed folders: %d\n", eng.Status().AllowlistCount)
		fmt.Fprintf(os.Stderr, "  Fallback: %s\n", cfg.FallbackDir)

		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
