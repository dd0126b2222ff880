package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/asifhussain60/cortex-kg/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP inspection server",
	Long:  "Serve the read-only knowledge graph API and /metrics, and run the daily decay task.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, kg, err := openGraph()
	if err != nil {
		return err
	}
	defer kg.Close()

	kg.StartDecayTimer()

	srv := server.New(kg, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "cortexkg serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", kg.DB().Path)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
