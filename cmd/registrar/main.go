package main

import (
	"log"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ registrar failed: %v", err)
	}
}
