// Command summarize submits one file and prompt to the summarize endpoint and
// prints the summary.
//
//	summarize -file report.pdf -prompt "three bullet points"
//	summarize -file s3://bucket/key.docx
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/yanqian/multimodal-summarizer/internal/domain/form"
	"github.com/yanqian/multimodal-summarizer/internal/infra/config"
	"github.com/yanqian/multimodal-summarizer/internal/infra/filesource"
	"github.com/yanqian/multimodal-summarizer/internal/infra/summarizeapi"
	apperrors "github.com/yanqian/multimodal-summarizer/pkg/errors"
	"github.com/yanqian/multimodal-summarizer/pkg/logger"
	"github.com/yanqian/multimodal-summarizer/pkg/metrics"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.NewWithWriter(os.Stderr, os.Getenv("LOG_LEVEL"))
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailed)
	}
	os.Exit(run(ctx, os.Args[1:], cfg, log, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, cfg *config.Config, log *slog.Logger, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("summarize", flag.ContinueOnError)
	flags.SetOutput(stderr)
	filePath := flags.String("file", "", "local path or s3://bucket/key of the file to summarize")
	prompt := flags.String("prompt", "", "custom prompt sent along with the file")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	source, err := newSource(cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}

	client := summarizeapi.NewClient(cfg.Endpoint.BaseURL, nil)
	counter := metrics.NewSubmissionCounter()
	f := form.New(form.Config{Policy: cfg.StalePolicy()}, client, counter)

	if *filePath != "" {
		file, err := source.Open(ctx, *filePath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailed
		}
		f.SelectFile(file)
		log.Debug("file selected", "name", file.Name, "mime_type", file.MimeType, "size", file.Size)
	}
	f.ChangePrompt(*prompt)

	state, err := f.Submit(ctx)
	switch {
	case apperrors.IsCode(err, apperrors.CodeMissingInput):
		fmt.Fprintln(stderr, form.MissingInputMessage)
		return exitUsage
	case err != nil:
		log.Debug("summarize request failed", "endpoint", client.BaseURL(), "error", err)
		if state.Notice != nil {
			fmt.Fprintln(stderr, state.Notice.Message)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return exitFailed
	}
	fmt.Fprintln(stdout, state.Summary)
	return exitOK
}

func newSource(cfg *config.Config, log *slog.Logger) (filesource.Source, error) {
	var objects filesource.Source
	if cfg.Storage.Enabled {
		store, err := filesource.NewObjectStore(cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Region, log)
		if err != nil {
			return nil, err
		}
		objects = store
	}
	return filesource.Limit(filesource.NewMux(filesource.NewDisk(), objects), cfg.Form.MaxFileBytes), nil
}
