// Package app wires the payment service: database, bus transport, the
// gateway collaborator, the order client and the HTTP and event surfaces.
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
	"github.com/marcosvcorsi/markethub/internal/orderclient"
	"github.com/marcosvcorsi/markethub/internal/payment/gateway"
	"github.com/marcosvcorsi/markethub/internal/payment/handler"
	"github.com/marcosvcorsi/markethub/internal/payment/listener"
	"github.com/marcosvcorsi/markethub/internal/payment/models"
	"github.com/marcosvcorsi/markethub/internal/payment/repository"
	"github.com/marcosvcorsi/markethub/internal/payment/service"
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
	if err := db.AutoMigrate(&models.Payment{}); err != nil {
		log.Fatalf("failed to auto migrate: %v", err)
	}

	a.Bus, err = cfg.NewBus()
	if err != nil {
		log.Fatalf("failed to connect to bus: %v", err)
	}

	metrics.Register()

	paymentRepo := repository.New(db)
	gw := &gateway.StubGateway{CheckoutBaseURL: cfg.Gateway.CheckoutBaseURL}
	orders := orderclient.NewHTTPDirectory(cfg.Services.OrderBaseURL, cfg.Services.OrderTimeout)
	paymentService := service.NewPaymentService(paymentRepo, gw, orders, a.Bus)
	paymentHandler := handler.NewPaymentHandler(paymentService, gw)

	a.Router = gin.Default()
	a.RegisterRoutes(paymentHandler)

	if err := listener.New(paymentService).Registry().Attach(a.Bus); err != nil {
		log.Fatalf("failed to attach subscriptions: %v", err)
	}
	if err := a.Bus.Start(context.Background()); err != nil {
		log.Fatalf("failed to start bus: %v", err)
	}
}

func (a *App) RegisterRoutes(h *handler.PaymentHandler) {
	a.Router.POST("/payments/checkout", h.CreateCheckout)
	a.Router.POST("/payments/webhook", h.HandleWebhook)
	a.Router.GET("/payments/order/:orderId", h.GetByOrder)

	a.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (a *App) Run() {
	defer a.Bus.Close()
	if err := a.Router.Run(fmt.Sprintf(":%s", a.config.APP.PORT)); err != nil {
		panic(err)
	}
}
