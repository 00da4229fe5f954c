// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"net/http"

	"github.com/avid-platform/avid/internal/config"
	"github.com/avid-platform/avid/internal/infrastructure"
	"github.com/avid-platform/avid/pkg/middleware"
	"github.com/avid-platform/avid/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// Interrupted paper runs are resumed once infrastructure startup completes;
// active runs are suspended on shutdown and resume on the next start.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	infra.Lifecycle.OnStartup(func() {
		if err := domain.Papers.Resume(context.Background()); err != nil {
			runtime.Logger.Error("resume interrupted runs failed", "error", err)
		}
	})
	infra.Lifecycle.OnShutdown(func() {
		<-infra.Lifecycle.Context().Done()
		domain.Papers.Shutdown()
	})

	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
