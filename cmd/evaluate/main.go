package main

// Evaluate one resume against one job offer without touching storage:
//   go run ./cmd/evaluate --resume cv.pdf --job offer.txt [--model llama3] [--provider ollama]

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"resume-match/internal/evaluation"
	"resume-match/internal/extract"
	"resume-match/internal/llm"
	"resume-match/internal/llm/provider"
	"resume-match/internal/shared/config"
	"resume-match/internal/shared/telemetry"
)

type options struct {
	resumePath string
	jobPath    string
	model      string
	provider   string
	debug      bool
}

type clientFactory func(ctx context.Context, cfg config.Config) (llm.Client, error)

func main() {
	if err := newRootCmd(provider.New).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(newClient clientFactory) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "evaluate",
		Short:         "Score how well a resume matches a job offer",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if opts.provider != "" {
				cfg.LLMProvider = opts.provider
			}
			if opts.model != "" {
				cfg.LLMModel = opts.model
			}
			logger, err := telemetry.New(false, opts.debug || cfg.LogDebug)
			if err != nil {
				return fmt.Errorf("creating a logger: %w", err)
			}
			telemetry.Set(logger)
			defer func() { _ = logger.Sync() }()

			client, err := newClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts, client, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.resumePath, "resume", "", "path to the resume (pdf, docx or text)")
	cmd.Flags().StringVar(&opts.jobPath, "job", "", "path to the job offer (pdf, docx or text)")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (defaults to LLM_MODEL)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "model provider: ollama, openai or gemini")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output")
	_ = cmd.MarkFlagRequired("resume")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func run(ctx context.Context, cfg config.Config, opts options, client llm.Client, out io.Writer) error {
	resumeText, err := readDocument(ctx, opts.resumePath)
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}
	jobText, err := readDocument(ctx, opts.jobPath)
	if err != nil {
		return fmt.Errorf("read job offer: %w", err)
	}

	ev := evaluation.WithRetry(evaluation.NewEvaluator(client, cfg.LLMModel, cfg.LogMaxLength), cfg.EvaluationRetries, 0)
	if cfg.EvaluationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.EvaluationTimeout)
		defer cancel()
	}
	res, err := ev.Evaluate(ctx, resumeText, jobText, cfg.LLMModel)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func readDocument(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return extract.ExtractTextFromBytes(ctx, data, "", filepath.Base(path))
}
