//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/multimodal-summarizer/internal/bootstrap"
	"github.com/yanqian/multimodal-summarizer/internal/infra/config"
	"github.com/yanqian/multimodal-summarizer/internal/infra/formsession"
	"github.com/yanqian/multimodal-summarizer/internal/infra/summarizeapi"
	httpiface "github.com/yanqian/multimodal-summarizer/internal/interface/http"
	"github.com/yanqian/multimodal-summarizer/pkg/logger"
	"github.com/yanqian/multimodal-summarizer/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.NewSubmissionCounter,
		provideFormConfig,
		provideSummarizeClient,
		provideFormFactory,
		provideSessionRegistry,
		provideObjectSource,
		provideHandlerConfig,
		wire.Bind(new(httpiface.SessionStore), new(*formsession.MemoryRegistry)),
		wire.Bind(new(httpiface.EndpointProber), new(*summarizeapi.Client)),
		wire.Bind(new(bootstrap.Prober), new(*summarizeapi.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
