package api

import (
	"net/http"

	"github.com/avid-platform/avid/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(
		mux,
		domain.Papers.Handler().Routes(),
	)
}
