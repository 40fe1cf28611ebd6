package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/zoeholiday/pricingservice/internal/app"
	"github.com/zoeholiday/pricingservice/internal/config"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

// loadConfig reads .env first so CONFIG_PATH set there becomes the -config default.
func loadConfig(args []string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	fs := flag.NewFlagSet("pricing-service", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file (default is environment only)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configPath != "" {
		return config.Load(*configPath)
	}
	return config.LoadFromEnv()
}
