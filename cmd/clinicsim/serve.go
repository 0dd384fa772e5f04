package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clinicsim/internal/orchestrator"
	"clinicsim/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulation API and websocket event stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := server.NewServer(server.Options{
			Engine:     orchestrator.Config{Workers: cfg.Workers, ScenarioTimeout: cfg.ScenarioTimeout},
			RunTimeout: cfg.RunTimeout,
			Token:      cfg.Token,
			Log:        log,
		})
		if err != nil {
			return err
		}
		defer srv.Close()

		httpServer := &http.Server{
			Addr:              cfg.Addr,
			Handler:           srv.Router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       0,
			WriteTimeout:      0,
			IdleTimeout:       120 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()

		log.Infof("clinicsim listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	commandKeys["serve"] = map[string]string{"addr": "addr"}
}
