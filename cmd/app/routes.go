package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"ratematch/internal/api"
	"ratematch/internal/api/middleware"
	"ratematch/internal/service"
)

const monitoringPath = "/monitoring"

func (app *App) initHTTP(rateService service.RateServiceInterface) {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(app.logger))
	r.Use(middleware.MetricsMiddleware(app.metrics))
	r.Use(chimiddleware.Recoverer)

	r.Get("/base", api.HandleGetBase(rateService))
	r.Put("/base", api.HandleSetBase(rateService))
	r.Get("/rates", api.HandleGetRates(rateService))
	r.Get("/match", api.HandleMatch(rateService))
	r.Post("/rates/refresh", api.HandleRequestRefresh(rateService))
	r.Get("/rates/refresh/{job_id}", api.HandleGetRefreshJob(rateService))
	r.Get("/facts/{fact_id}", api.HandleGetFact(rateService))
	r.Delete("/facts/{fact_id}", api.HandleCancelFact(rateService))
	r.Get("/facts/{fact_id}/stream", api.HandleStreamFact(rateService))
	r.Get("/healthz", api.HandleHealthz())
	r.Get("/readyz", api.HandleReadyz(app.db, app.rdbCache, app.rdbAsynq))
	r.Handle("/metrics", api.MetricsHandler(app.registry))

	if app.cfg.Server.ServeSwagger {
		r.Get("/swagger/*", api.SwaggerUIHandler())
		r.Get("/openapi.json", api.OpenAPISpecHandler())
	}

	if app.cfg.Server.ServeAsynqmon {
		app.monitor = api.MonitoringHandler(monitoringPath, app.cfg.Redis.AsynqAddr)
		r.Handle(monitoringPath+"/*", app.monitor)
	}

	// Fact streams lift WriteTimeout per request.
	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
