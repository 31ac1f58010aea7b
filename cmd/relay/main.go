package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bala7708/Live-Messaging-App/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.Println("Starting live messaging relay...")

	cfg := server.NewConfigFromEnv()
	relay := server.NewServer(cfg)

	if err := relay.Listen(); err != nil {
		log.Fatalf("Failed to start relay: %v", err)
	}

	go func() {
		if err := relay.Serve(); err != nil {
			log.Fatalf("Relay stopped: %v", err)
		}
	}()

	httpServer := server.NewHTTPServer(cfg.HTTPAddr, relay.Routes())
	go func() {
		log.Printf("HTTP front end listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server stopped: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutdown signal received")
	_ = server.ShutdownHTTPServer(httpServer, shutdownTimeout)
	if err := relay.Shutdown(shutdownTimeout); err != nil {
		log.Printf("Relay shutdown incomplete: %v", err)
	}
}
