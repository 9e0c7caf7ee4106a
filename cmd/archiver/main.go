// Command archiver runs the inactive-session sweep as a standalone process,
// for deployments that split it out from cmd/server rather than running it
// in-process.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	gc "groupcore"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := gc.LoadConfig()

	store, err := gc.NewSQLStore(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("store init: %v", err)
	}
	gc.SetAuditRepository(store)
	gc.SetNodeMetadata(cfg.NodeID)

	hub := gc.NewBroadcastHub()
	coordinator := gc.NewCoordinator(store, gc.SystemClock{}, gc.UUIDGenerator{}, gc.CryptoTokenGenerator{}, hub, cfg.ShareURLBase)

	ticker := time.NewTicker(cfg.ArchiveInterval)
	defer ticker.Stop()

	log.Printf("archiver sweeping every %s for sessions inactive past %s", cfg.ArchiveInterval, cfg.ArchiveAfter)
	for {
		select {
		case <-ticker.C:
			n, err := coordinator.ArchiveInactive(ctx, cfg.ArchiveAfter)
			if err != nil {
				log.Printf("sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("archived %d inactive sessions", n)
			}
		case <-ctx.Done():
			log.Println("archiver shutting down")
			return
		}
	}
}
