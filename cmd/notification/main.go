package main

import (
	"fmt"
	"os"

	"github.com/marcosvcorsi/markethub/config"
	"github.com/marcosvcorsi/markethub/internal/notification/app"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Println("Error reading config", err)
		os.Exit(1)
	}
	notificationApp := &app.App{}
	notificationApp.Initialize(cfg)
	notificationApp.Run()
}
