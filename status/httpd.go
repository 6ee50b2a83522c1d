package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/wojas/go-healthz"

	"github.com/PowerDNS/descstore/config"
	"github.com/PowerDNS/descstore/service"
)

// Handler returns the HTTP handler with the API, status page and metrics
func Handler(c config.Config, svc *service.Service) http.Handler {
	api := &API{svc: svc, maxPageSize: c.HTTP.MaxPageSize}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /healthz", healthz.Handler())
	mux.HandleFunc("GET /api/descriptions", api.handlePage)
	mux.HandleFunc("GET /api/descriptions/{source_id}", api.handleGet)
	mux.HandleFunc("GET /api/history", api.handleHistory)
	mux.HandleFunc("POST /api/load", api.handleLoad)
	mux.Handle("GET /{$}", &Page{c: c, svc: svc})
	return mux
}

// Serve runs the HTTP server until ctx is cancelled
func Serve(ctx context.Context, c config.Config, svc *service.Service) error {
	if c.HTTP.Address == "" {
		logrus.Info("HTTP server disabled")
		<-ctx.Done()
		return nil
	}
	srv := &http.Server{
		Addr:              c.HTTP.Address,
		Handler:           Handler(c, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("HTTP server shutdown")
		}
	}()

	logrus.WithField("address", c.HTTP.Address).Info("HTTP server enabled")
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
