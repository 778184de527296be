package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-proposals/config"
	"github.com/gaborage/go-proposals/generation"
	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/proposal"
	"github.com/gaborage/go-proposals/submission"
)

// SubmitOptions holds options for the submit command
type SubmitOptions struct {
	File      string
	ConfigDir string
	Output    string
	Provider  string
	Timeout   time.Duration
}

// backendFactory builds the generation backend. Tests replace it.
var backendFactory = func(ctx context.Context, cfg *config.GenerationConfig, log logger.Logger) (generation.Backend, error) {
	return generation.New(ctx, cfg, log)
}

// NewSubmitCommand creates the submit command
func NewSubmitCommand() *cobra.Command {
	opts := &SubmitOptions{}

	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Validate a proposal request and generate the proposal",
		Long: `Validates the request and, when it is valid, sends it to the configured
generation backend. The generated document is written to --output or stdout.
Interrupting the command cancels the submission.`,
		Example: `  proposalctl submit request.yaml -o proposal.json
  GENERATION_PROVIDER=openai proposalctl submit request.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.File = args[0]
			return runSubmit(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.ConfigDir, "config-dir", "c", ".", "Directory holding config.yaml and .env")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write the generated document to this file")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "Override generation.provider")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Override generation.timeout")
	return cmd
}

func runSubmit(cmd *cobra.Command, opts *SubmitOptions) error {
	p := newPrinter(cmd.ErrOrStderr())

	req, err := readRequest(opts.File, cmd.InOrStdin())
	if err != nil {
		var verrs proposal.ValidationErrors
		if errors.As(err, &verrs) {
			reportFindings(p, verrs, nil)
			return errValidationFailed
		}
		return err
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{Dir: opts.ConfigDir})
	if err != nil {
		return err
	}
	if opts.Provider != "" {
		cfg.Generation.Provider = opts.Provider
	}
	if opts.Timeout > 0 {
		cfg.Generation.Timeout = opts.Timeout
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, true, logger.DefaultFilterConfig())
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := backendFactory(ctx, &cfg.Generation, log)
	if err != nil {
		return fmt.Errorf("generation backend: %w", err)
	}
	defer backend.Close()

	pipeline := submission.NewPipeline(backend,
		submission.WithTimeout(cfg.Generation.Timeout),
		submission.WithLogger(log),
	)
	stopWatch := context.AfterFunc(ctx, func() { pipeline.Cancel() })
	defer stopWatch()

	p.Info("Submitting %s to %s backend", opts.File, backend.Name())
	res, err := pipeline.Submit(context.WithoutCancel(ctx), req)
	if err != nil {
		return reportSubmitError(p, err, pipeline.State())
	}

	if err := writeResult(cmd, opts.Output, res); err != nil {
		return err
	}
	p.Success("Proposal generated (job %s)", res.JobID)
	return nil
}

func reportSubmitError(p *printer, err error, state submission.State) error {
	var rej *submission.RejectedError
	if errors.As(err, &rej) {
		reportFindings(p, rej.Errors, rej.Warnings)
		return errValidationFailed
	}
	if errors.Is(err, submission.ErrCanceled) {
		p.Warning("Submission canceled")
		return err
	}
	if failed, ok := state.(submission.Failed); ok {
		p.Error("Job %s attempt %d failed", failed.JobID, failed.Attempt)
	}
	if submission.IsRetryable(err) {
		p.Info("The failure is transient, the same request can be submitted again")
	}
	return err
}

func writeResult(cmd *cobra.Command, path string, res *submission.Result) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(res.Body)
		if err == nil && len(res.Body) > 0 && res.Body[len(res.Body)-1] != '\n' {
			_, err = fmt.Fprintln(cmd.OutOrStdout())
		}
		return err
	}
	if err := os.WriteFile(path, res.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
