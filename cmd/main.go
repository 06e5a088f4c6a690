package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrigankDubey/My-Second-app/internal/config"
	"github.com/MrigankDubey/My-Second-app/internal/server"
)

func main() {
	c, err := loadConfig()
	if err != nil {
		log.Fatalf("Load config failed: %v", err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGTERM, os.Interrupt)

	s, err := server.Init(c)
	if err != nil {
		log.Fatalf("Init server failed: %v", err)
	}

	go s.Start()

	<-shutdown
	s.Shutdown()
}

func loadConfig() (server.Config, error) {
	// A missing .env is fine outside local development.
	_ = godotenv.Load()

	c := defaultConfig()

	if err := config.Load(os.Getenv("CONFIG_PATH"), &c); err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}

	return c, nil
}

func defaultConfig() server.Config {
	var c server.Config

	c.HTTP.Port = 8080
	c.Redis.Recency.Prefix = "quiz:recency"
	c.Redis.Recency.Window = 5
	c.Redis.Pubsub.Prefix = "quiz:notify"
	c.Session.IdleTimeout = 30 * time.Minute
	c.Session.SweepInterval = time.Minute

	return c
}
