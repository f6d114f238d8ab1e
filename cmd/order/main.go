package main

import (
	"fmt"
	"os"

	"github.com/marcosvcorsi/markethub/config"
	"github.com/marcosvcorsi/markethub/internal/order/app"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Println("Error reading config", err)
		os.Exit(1)
	}
	orderApp := &app.App{}
	orderApp.Initialize(cfg)
	orderApp.Run()
}
