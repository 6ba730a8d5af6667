package cli

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

	"concierge/internal/categories"
	"concierge/internal/classify"
	"concierge/internal/engine"
	"concierge/internal/gate"
	"concierge/internal/llm"
	"concierge/internal/metrics"
	"concierge/internal/quota"
	"concierge/internal/search"
	"concierge/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long:  `Starts the HTTP server that receives platform webhooks and answers DMs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cats, err := categories.Load()
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}

		chatModel, err := llm.NewModel(ctx, cfg, cfg.LLMModel)
		if err != nil {
			return fmt.Errorf("init chat model: %w", err)
		}
		searchModel, err := llm.NewModel(ctx, cfg, cfg.SearchModel)
		if err != nil {
			return fmt.Errorf("init search model: %w", err)
		}

		nyc, err := time.LoadLocation("America/New_York")
		if err != nil {
			return fmt.Errorf("load timezone: %w", err)
		}
		nowNYC := func() time.Time { return time.Now().In(nyc) }

		quotas := quota.New(cfg.ClassifyQuota, cfg.WebSearchQuota)
		collector := metrics.NewCollector()

		classifier := classify.New(chatModel, cats, quotas, cfg.ClassifyTimeout, logger, nowNYC)
		gates := gate.New(chatModel, cfg.ExtractTimeout, logger, nowNYC)
		restaurants := search.NewRestaurants(dbStore, searchModel, quotas, cfg.SearchTimeout, logger)
		events := search.NewEvents(dbStore, searchModel, cats, quotas, cfg.SearchTimeout, logger, nowNYC)

		eng := engine.New(dbStore, classifier, gates, restaurants, events, chatModel, collector, logger)
		sender := webhook.NewGraphSender(cfg.PageToken, cfg.SendTimeout, logger)
		srv := webhook.NewServer(eng, sender, cfg.VerifyToken, cfg.PageID, collector, logger)

		httpSrv := &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: srv.Router(),
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

		errCh := make(chan error, 1)
		go func() {
			logger.Info("webhook server listening", "port", cfg.Port)
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		snap := collector.Snapshot()
		logger.Info("shutdown complete", "uptime_seconds", snap.UptimeSeconds)
		return nil
	},
}
