package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unionlens/contract-assistant/internal/access"
	"github.com/unionlens/contract-assistant/internal/api"
	"github.com/unionlens/contract-assistant/internal/cache"
	"github.com/unionlens/contract-assistant/internal/config"
	"github.com/unionlens/contract-assistant/internal/genai"
	"github.com/unionlens/contract-assistant/internal/platform/factory"
	"github.com/unionlens/contract-assistant/internal/platform/logger"
	"github.com/unionlens/contract-assistant/internal/services"
	"github.com/unionlens/contract-assistant/internal/usage"
)

func main() {
	// Optional build-target flag override (local | cloud-dev | cloud)
	buildTarget := flag.String("build-target", "", "Override BUILD_TARGET (local, cloud-dev, cloud)")
	flag.Parse()

	log := logger.New("contract-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *buildTarget != "" {
		cfg.BuildTarget = *buildTarget
		cfg.DBDriver = "auto"
		if err := cfg.ResolveDefaults(); err != nil {
			log.Fatal().Err(err).Msg("Invalid build-target override")
		}
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Contract service starting…")

	// -------- Storage layer -----------------
	st, err := factory.NewStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Storage driver unavailable")
	}

	// -------- Domain services ---------------
	resolver := access.NewResolver(st, log)
	meter := usage.NewMeter(st, resolver, log)
	responseCache := cache.New(st, log)
	generator := genai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, genai.ModelNames{
		Basic:    cfg.AIModelBasic,
		Standard: cfg.AIModelStandard,
		Premium:  cfg.AIModelPremium,
	})
	assistant := services.NewAssistantService(st, responseCache, resolver, meter, generator, log)

	deps := api.Deps{
		Users:     services.NewUserService(st),
		Assistant: assistant,
		Resolver:  resolver,
		Log:       log,
	}
	if p, ok := st.(api.Pinger); ok {
		deps.DB = p
	}

	// -------- Router & Server --------------
	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // generation can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
