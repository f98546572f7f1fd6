package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/scrollmotion/internal/engine"
	"github.com/ivlev/scrollmotion/internal/frame"
	"github.com/ivlev/scrollmotion/internal/metrics"
	"github.com/ivlev/scrollmotion/internal/preference"
	"github.com/ivlev/scrollmotion/internal/scenario"
	"github.com/ivlev/scrollmotion/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a live session behind an HTTP control API",
	Long: `Mounts the scenario's sections on a real-time frame loop and exposes the
session state, control endpoints and Prometheus metrics over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Scenario == "" {
			latest, err := scenario.FindLatestScenario(scenario.DefaultDir)
			if err != nil {
				return fmt.Errorf("%w: pass --scenario or run scaffold first", err)
			}
			cfg.Scenario = latest
		}
		sc, doc, err := engine.NewSimulation(cfg, logger).Load()
		if err != nil {
			return err
		}
		if err := scenario.Validate(sc, doc); err != nil {
			logger.Warn("scenario has problems, affected tweens will be skipped", "err", err)
		}

		pump := frame.NewTickerPump(cfg.FPS)
		var query preference.MediaQuery
		if cfg.PreferenceFile != "" {
			query = preference.Delivered{Query: preference.FileQuery{Path: cfg.PreferenceFile}, Post: pump.Post}
		} else {
			p, err := preference.Parse(cfg.Preference)
			if err != nil {
				return err
			}
			query = preference.NewSwitch(p)
		}

		rec := metrics.NewRecorder()
		session, err := engine.NewSession(doc, sc, pump, engine.Options{
			FPS:     cfg.FPS,
			Query:   query,
			Logger:  logger,
			Metrics: rec,
		})
		if err != nil {
			return err
		}
		// The loop is not running yet, so this goroutine still owns the session.
		session.MountAll()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		loopDone := make(chan error, 1)
		go func() { loopDone <- pump.Run(ctx) }()

		api := &server.Server{Session: session, Runner: pump, Metrics: rec.Handler(), Logger: logger}
		srv := &http.Server{
			Addr:    cfg.Addr,
			Handler: api.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			fmt.Printf("[*] Serving %s on %s\n", cfg.Document, srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			cancel()
			<-loopDone
			session.Close()
			return fmt.Errorf("server: %w", err)

		case err := <-loopDone:
			srv.Close()
			return fmt.Errorf("frame loop stopped: %w", err)

		case sig := <-shutdown:
			fmt.Printf("\n[*] Shutting down on %v\n", sig)

			// Give outstanding requests a deadline for completion.
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			if err := srv.Shutdown(sctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				srv.Close()
			}

			// Revert every section on the loop before stopping it.
			if err := pump.Do(sctx, func() { session.Close() }); err != nil {
				logger.Warn("session close", "err", err)
			}
			cancel()
			if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Println("[+] Stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
}
