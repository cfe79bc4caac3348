package main

import (
	"log"

	"github.com/voxroute/switchboard/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ switchboard failed to start: %v", err)
	}
}
