package main

import (
	"encoding/json"
	"net/http"

	"argus/internal/api"
	"argus/internal/config"
	"argus/internal/infrastructure"
	"argus/pkg/middleware"
	"argus/pkg/module"
	"argus/web/dashboard"
	"argus/web/scalar"
)

type Modules struct {
	API       *module.Module
	Scalar    *module.Module
	Dashboard http.Handler
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	scalarModule := scalar.NewModule("/scalar", cfg.API.BasePath+"/openapi.json")
	scalarModule.Use(middleware.Logger(infra.Logger))

	dash, err := dashboard.NewHandler()
	if err != nil {
		return nil, err
	}

	return &Modules{
		API:       apiModule,
		Scalar:    scalarModule,
		Dashboard: middleware.Logger(infra.Logger)(dash),
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.Scalar)
	router.SetFallback(m.Dashboard)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return router
}
