package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"helpdesk/internal/apihandlers"
	"helpdesk/internal/app"
)

var (
	serveAddr string // Listen address
	servePort string // Listen port
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the prediction HTTP API server",
	Long: `Starts an HTTP server exposing ticket predictions, model status,
retraining and category insights under /api/v1, plus /health and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		addr := appInstance.Config.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		port := appInstance.Config.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv := &http.Server{
			Addr:              net.JoinHostPort(addr, port),
			Handler:           newRouter(appInstance),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.WithField("addr", srv.Addr).Info("starting helpdesk API server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("failed to run API server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Info("shutdown signal received, stopping API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down API server: %w", err)
		}
		log.Info("API server stopped")
		return nil
	},
}

func newRouter(appInstance *app.App) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	apihandlers.NewAPIHandler(appInstance).RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// requestLogger logs each request through logrus.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("handled request")
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost", "Address to listen on (e.g., '0.0.0.0' for all interfaces)")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
}
