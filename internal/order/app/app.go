// Package app wires the order service: database, bus transport, the
// orchestrator and its HTTP and event surfaces.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcosvcorsi/markethub/config"
	"github.com/marcosvcorsi/markethub/internal/bus"
	"github.com/marcosvcorsi/markethub/internal/metrics"
	"github.com/marcosvcorsi/markethub/internal/order/handler"
	"github.com/marcosvcorsi/markethub/internal/order/listener"
	"github.com/marcosvcorsi/markethub/internal/order/models"
	"github.com/marcosvcorsi/markethub/internal/order/repository"
	"github.com/marcosvcorsi/markethub/internal/order/service"
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
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		log.Fatalf("failed to auto migrate: %v", err)
	}

	a.Bus, err = cfg.NewBus()
	if err != nil {
		log.Fatalf("failed to connect to bus: %v", err)
	}

	metrics.Register()

	orderRepo := repository.New(db)
	orderService := service.NewOrderService(orderRepo, a.Bus)
	orderHandler := handler.NewOrderHandler(orderService)

	a.Router = gin.Default()
	a.RegisterRoutes(orderHandler)

	if err := listener.New(orderService).Registry().Attach(a.Bus); err != nil {
		log.Fatalf("failed to attach subscriptions: %v", err)
	}
	if err := a.Bus.Start(context.Background()); err != nil {
		log.Fatalf("failed to start bus: %v", err)
	}
}

func (a *App) RegisterRoutes(h *handler.OrderHandler) {
	a.Router.POST("/orders", h.Create)
	a.Router.GET("/orders", h.List)
	a.Router.GET("/orders/:id", h.Get)
	a.Router.POST("/orders/:id/cancel", h.Cancel)

	a.Router.GET("/internal/orders/:id", h.GetInternal)
	a.Router.POST("/internal/orders/:id/transition", h.Transition)
	a.Router.POST("/internal/orders/:id/ship", h.Ship)

	a.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (a *App) Run() {
	defer a.Bus.Close()
	if err := a.Router.Run(fmt.Sprintf(":%s", a.config.APP.PORT)); err != nil {
		panic(err)
	}
}
