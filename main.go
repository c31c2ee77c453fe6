package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pgmy/config"
	"pgmy/executor"
	"pgmy/server"
	"pgmy/version"
)

func main() {
	cfg := config.Parse()
	log.Printf("starting %s", version.String())

	// Fail fast when the backend is unreachable, rather than on the
	// first client connection.
	probeCtx, probeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	probe, err := executor.Connect(probeCtx, cfg.BackendDSN())
	if err != nil {
		probeCancel()
		log.Fatalf("backend unreachable: %v", err)
	}
	probe.Close(probeCtx)
	probeCancel()

	srv := server.New(cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("received %v, shutting down...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
