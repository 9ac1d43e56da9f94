package main

import (
	"log"

	"github.com/slpwire/slpd/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("slpd failed to start: %v", err)
	}
}
