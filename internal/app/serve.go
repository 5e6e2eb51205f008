package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"zlatko/internal/handler"
	"zlatko/internal/mailbox"
	"zlatko/internal/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	logrus.Info("Starting Zlatko service")

	var authURL func(string) string
	if a.Config.Google.ClientID != "" {
		authURL = func(state string) string { return mailbox.AuthCodeURL(a.OAuth, state) }
	}

	h := handler.NewHandlers(handler.Deps{
		DB:             a.DB,
		Sync:           a.Sync,
		Reconciler:     a.Reconciler,
		Prospects:      a.Prospects,
		Communications: a.Communications,
		Credentials:    a.Credentials,
		Scheduler:      a.Scheduler,
		Bus:            a.Bus,
		Auth:           a.Config.Auth,
		AuthURL:        authURL,
	})
	srv := &http.Server{
		Addr:         ":" + a.Config.Server.Port,
		Handler:      router.SetupRouter(h),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	if a.Config.Sync.AutoSync || a.Config.Reconcile.Enabled {
		if err := a.Scheduler.Start(); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("Starting HTTP server on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		logrus.Errorf("HTTP server error: %v", err)
	}

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Scheduler.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	a.Scheduler.Wait()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}
