package main

import (
	"log"
	"os"

	"firdesk/internal/commands"
	"firdesk/internal/config"
	"firdesk/internal/logging"

	"github.com/joho/godotenv"
)

func main() {
	logging.Init()

	// Load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := commands.NewRootCmd(commands.ConfigOpener(cfg)).Execute(); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}
