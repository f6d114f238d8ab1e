// Package app wires the notification service: bus transport, the realtime
// hub, the email collaborator and the order directory client. No database;
// notifications are ephemeral.
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
	"github.com/marcosvcorsi/markethub/internal/notification/email"
	"github.com/marcosvcorsi/markethub/internal/notification/handler"
	"github.com/marcosvcorsi/markethub/internal/notification/hub"
	"github.com/marcosvcorsi/markethub/internal/notification/listener"
	"github.com/marcosvcorsi/markethub/internal/notification/service"
	"github.com/marcosvcorsi/markethub/internal/orderclient"
)

type App struct {
	config *config.Config
	Router *gin.Engine
	Bus    bus.Bus
}

func (a *App) Initialize(cfg *config.Config) {
	a.config = cfg

	var err error
	a.Bus, err = cfg.NewBus()
	if err != nil {
		log.Fatalf("failed to connect to bus: %v", err)
	}

	metrics.Register()

	userHub := hub.New()
	orders := orderclient.NewHTTPDirectory(cfg.Services.OrderBaseURL, cfg.Services.OrderTimeout)
	notificationService := service.NewNotificationService(userHub, &email.LogSender{}, orders)
	notificationHandler := handler.NewNotificationHandler(userHub)

	a.Router = gin.Default()
	a.RegisterRoutes(notificationHandler)

	if err := listener.New(notificationService).Registry().Attach(a.Bus); err != nil {
		log.Fatalf("failed to attach subscriptions: %v", err)
	}
	if err := a.Bus.Start(context.Background()); err != nil {
		log.Fatalf("failed to start bus: %v", err)
	}
}

func (a *App) RegisterRoutes(h *handler.NotificationHandler) {
	a.Router.GET("/notifications/stream/:userId", h.Stream)
	a.Router.GET("/health", h.Health)

	a.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (a *App) Run() {
	defer a.Bus.Close()
	if err := a.Router.Run(fmt.Sprintf(":%s", a.config.APP.PORT)); err != nil {
		panic(err)
	}
}
