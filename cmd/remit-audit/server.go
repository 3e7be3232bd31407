package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"swiftremit/config"
	"swiftremit/core"
)

func newRouter(host *core.Host, cfg *config.Config, params config.RemitParameters, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/report", func(w http.ResponseWriter, r *http.Request) {
		report, err := buildReport(host, cfg, params)
		if err != nil {
			logger.Error("build report", slog.String("component", "audit"), slog.String("error", err.Error()))
			http.Error(w, "report unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	})
	r.Handle("/metrics", promhttp.Handler())
	return otelhttp.NewHandler(r, "remit-audit")
}
