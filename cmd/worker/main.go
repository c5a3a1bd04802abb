package main

import (
	"log"
	"os"

	"github.com/itsatony/triaxis/internal/config"
	"github.com/itsatony/triaxis/internal/server"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting Triaxis worker v%s", nuts.GetVersion())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateStandaloneWorker(); err != nil {
		log.Fatalf("Invalid worker configuration: %v", err)
	}

	if err := server.RunWorker(cfg); err != nil {
		nuts.L.Errorf("[Main] Worker error: %v", err)
		os.Exit(1)
	}
}
