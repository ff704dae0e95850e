package bootstrap

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"docsift-backend/internal/config"
	"docsift-backend/internal/engine"
	"docsift-backend/internal/profile"
	"docsift-backend/internal/provider"
	"docsift-backend/internal/provider/gemini"
	"docsift-backend/internal/provider/openai"
	"docsift-backend/internal/server"
	"docsift-backend/internal/services/health"
)

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	Resolver *profile.Resolver
	Provider provider.Provider
	Engine   *engine.Engine
}

// Build prepares shared dependencies and wires routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	prov, err := BuildProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	resolver := profile.DefaultResolver(cfg.ProfileDir)
	eng := engine.New(resolver, engine.Defaults{
		ModelName:    cfg.Model,
		MaxDocuments: cfg.MaxDocuments,
		Concurrency:  cfg.Concurrency,
	})

	app := &App{
		Config:   cfg,
		Resolver: resolver,
		Provider: prov,
		Engine:   eng,
	}
	app.Router = server.NewEngine(&server.Handler{
		Engine:    eng,
		Resolver:  resolver,
		Provider:  prov,
		Health:    health.NewService(cfg.Provider, resolver.StoreNames()),
		AWSRegion: cfg.AWSRegion,
	})
	return app, nil
}

// BuildProvider constructs the configured model backend.
func BuildProvider(ctx context.Context, cfg config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "", "stub":
		return provider.StubProvider{ModelName: cfg.Model}, nil
	case "openai":
		return openai.NewClient(cfg.OpenAIKey, cfg.Model)
	case "gemini":
		return gemini.NewClient(ctx, cfg.GeminiKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
