// Package app wires the catalog service: database, bus transport, the order
// directory client and the HTTP and event surfaces.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcosvcorsi/markethub/config"
	"github.com/marcosvcorsi/markethub/internal/bus"
	"github.com/marcosvcorsi/markethub/internal/catalog/handler"
	"github.com/marcosvcorsi/markethub/internal/catalog/listener"
	"github.com/marcosvcorsi/markethub/internal/catalog/models"
	"github.com/marcosvcorsi/markethub/internal/catalog/repository"
	"github.com/marcosvcorsi/markethub/internal/catalog/service"
	"github.com/marcosvcorsi/markethub/internal/metrics"
	"github.com/marcosvcorsi/markethub/internal/orderclient"
)

type App struct {
	config *config.Config
	Router *gin.Engine
	Bus    bus.Bus
}

func (a *App) Initialize(cfg *config.Config) {
	a.config = cfg

	db, err := cfg.DB.GormConnect()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.ProcessedEvent{}); err != nil {
		log.Fatalf("failed to auto migrate: %v", err)
	}

	a.Bus, err = cfg.NewBus()
	if err != nil {
		log.Fatalf("failed to connect to bus: %v", err)
	}

	metrics.Register()

	productRepo := repository.New(db)
	catalogService := service.NewCatalogService(productRepo, a.Bus)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	orders := orderclient.NewHTTPDirectory(cfg.Services.OrderBaseURL, cfg.Services.OrderTimeout)

	a.Router = gin.Default()
	a.RegisterRoutes(catalogHandler)

	if err := listener.New(catalogService, orders).Registry().Attach(a.Bus); err != nil {
		log.Fatalf("failed to attach subscriptions: %v", err)
	}
	if err := a.Bus.Start(context.Background()); err != nil {
		log.Fatalf("failed to start bus: %v", err)
	}
}

func (a *App) RegisterRoutes(h *handler.CatalogHandler) {
	a.Router.POST("/products", h.Create)
	a.Router.GET("/products", h.List)
	a.Router.GET("/products/:id", h.Get)
	a.Router.PATCH("/products/:id", h.Update)
	a.Router.DELETE("/products/:id", h.Remove)

	a.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (a *App) Run() {
	defer a.Bus.Close()
	if err := a.Router.Run(fmt.Sprintf(":%s", a.config.APP.PORT)); err != nil {
		panic(err)
	}
}
