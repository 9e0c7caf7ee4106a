package main

import (
	"context"
	"log"
	"net/http"
	"time"

	gc "groupcore"
)

func main() {
	cfg := gc.LoadConfig()

	store, err := gc.NewSQLStore(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("store init: %v", err)
	}
	gc.SetAuditRepository(store)
	gc.SetNodeMetadata(cfg.NodeID)

	hub := gc.NewBroadcastHub()
	coordinator := gc.NewCoordinator(store, gc.SystemClock{}, gc.UUIDGenerator{}, gc.CryptoTokenGenerator{}, hub, cfg.ShareURLBase)

	gc.RecordAudit(context.Background(), gc.AuditLevelInfo, "", "", "node", "start", "node boot sequence", map[string]any{
		"node_id": cfg.NodeID,
		"addr":    cfg.HTTPAddr,
	})

	stop := make(chan struct{})
	go runArchiver(coordinator, cfg.ArchiveAfter, cfg.ArchiveInterval, stop)

	router := gc.NewRouter(coordinator)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		log.Printf("listening on %s with TLS enabled", cfg.HTTPAddr)
		if err := server.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile); err != nil {
			log.Fatal(err)
		}
	} else {
		log.Printf("listening on %s over HTTP (set TLS_CERT_FILE/TLS_KEY_FILE for TLS)", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil {
			log.Fatal(err)
		}
	}
}

// runArchiver periodically sweeps sessions that have been inactive past
// cutoff, archiving them so they drop out of active-session listings.
func runArchiver(coordinator *gc.Coordinator, cutoff, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := coordinator.ArchiveInactive(context.Background(), cutoff)
			if err != nil {
				log.Printf("archive sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("archived %d inactive sessions", n)
			}
		case <-stop:
			return
		}
	}
}
