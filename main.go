package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Configuration invalide : %v", err)
	}
	if err := configureLogging(cfg); err != nil {
		log.Fatalf("Configuration des logs invalide : %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var analyzer imageAnalyzer
	if cfg.ProjectID != "" {
		gemini, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Impossible d'initialiser Gemini : %v", err)
		}
		defer gemini.Close()
		analyzer = gemini
		log.WithField("project", cfg.ProjectID).Info("Client Gemini initialisé")
	} else {
		log.Info("GCP_PROJECT_ID non défini — import d'image désactivé")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           requestLogger(NewServer(NewStore(), analyzer)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.Infof("Serveur démarré sur http://localhost:%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
