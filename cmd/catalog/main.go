package main

import (
	"fmt"
	"os"

	"github.com/marcosvcorsi/markethub/config"
	"github.com/marcosvcorsi/markethub/internal/catalog/app"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Println("Error reading config", err)
		os.Exit(1)
	}
	catalogApp := &app.App{}
	catalogApp.Initialize(cfg)
	catalogApp.Run()
}
