package main

import (
	"log/slog"

	"github.com/yanqian/multimodal-summarizer/internal/domain/form"
	"github.com/yanqian/multimodal-summarizer/internal/infra/config"
	"github.com/yanqian/multimodal-summarizer/internal/infra/filesource"
	"github.com/yanqian/multimodal-summarizer/internal/infra/formsession"
	"github.com/yanqian/multimodal-summarizer/internal/infra/summarizeapi"
	httpiface "github.com/yanqian/multimodal-summarizer/internal/interface/http"
	"github.com/yanqian/multimodal-summarizer/pkg/metrics"
)

func provideFormConfig(cfg *config.Config) form.Config {
	return form.Config{Policy: cfg.StalePolicy()}
}

func provideSummarizeClient(cfg *config.Config) *summarizeapi.Client {
	return summarizeapi.NewClient(cfg.Endpoint.BaseURL, nil)
}

func provideFormFactory(cfg form.Config, client *summarizeapi.Client, counter *metrics.SubmissionCounter) formsession.Factory {
	return func() *form.Form {
		return form.New(cfg, client, counter)
	}
}

func provideSessionRegistry(cfg *config.Config, factory formsession.Factory, logger *slog.Logger) *formsession.MemoryRegistry {
	return formsession.NewMemoryRegistry(formsession.Config{
		IdleTTL:     cfg.Session.IdleTTL,
		MaxSessions: cfg.Session.MaxSessions,
	}, factory, logger)
}

// provideObjectSource returns a nil Source when storage is disabled so the page
// hides the storage picker.
func provideObjectSource(cfg *config.Config, logger *slog.Logger) (filesource.Source, error) {
	if !cfg.Storage.Enabled {
		logger.Info("object storage disabled")
		return nil, nil
	}
	store, err := filesource.NewObjectStore(cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Region, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("object storage enabled", "endpoint", cfg.Storage.Endpoint)
	return store, nil
}

func provideHandlerConfig(cfg *config.Config) httpiface.HandlerConfig {
	return httpiface.HandlerConfig{
		MaxFileBytes: cfg.Form.MaxFileBytes,
		RateLimit:    cfg.HTTP.RateLimit,
	}
}
