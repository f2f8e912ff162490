package api

import (
	"net/http"

	"argus/internal/config"
	"argus/pkg/openapi"
	"argus/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) error {
	routes.Register(
		mux,
		domain.Results.Handler().Routes(),
		domain.Sessions.Handler().Routes(),
	)

	spec, err := specJSON(cfg)
	if err != nil {
		return err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))

	return nil
}
