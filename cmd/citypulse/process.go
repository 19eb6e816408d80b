package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/JustHarshit/Citypulse/internal/common"
	"github.com/JustHarshit/Citypulse/internal/dataset"
	"github.com/JustHarshit/Citypulse/internal/export"
	"github.com/JustHarshit/Citypulse/internal/intake"
	"github.com/JustHarshit/Citypulse/internal/notify"
	"github.com/JustHarshit/Citypulse/internal/orchestrate"
	"github.com/JustHarshit/Citypulse/internal/simulate"
	"github.com/JustHarshit/Citypulse/internal/transport"
)

func newProcessCmd() *cobra.Command {
	var (
		serverURL string
		format    string
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "process [files...]",
		Short: "Validate, extract and export a batch of documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := common.LoadConfig()
			if serverURL != "" {
				cfg.Transfer.PipelineURL = serverURL
			}
			logger := slog.Default()
			notifier := notify.New(cfg.Notify.VisibleFor, renderNotification)

			// Stage the batch through the intake policy.
			batch := intake.NewBatch()
			validator := intake.NewValidator(cfg.Intake.MaxFileBytes, logger)
			raw := make([]intake.RawFile, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				raw = append(raw, intake.RawFile{
					Name: filepath.Base(path),
					Size: int64(len(data)),
					Data: data,
				})
			}
			accepted, rejected := validator.Submit(batch, raw)
			if len(rejected) > 0 {
				notifier.Push(notify.SeverityError, rejectionSummary(rejected))
			}
			if len(accepted) == 0 {
				notifier.Push(notify.SeverityError, "no valid files to process")
				return errors.New("no valid files to process")
			}
			notifier.Push(notify.SeverityInfo, fmt.Sprintf("%d file(s) accepted", len(accepted)))

			// Transfer with progress rendering.
			bar := progressbar.NewOptions(100,
				progressbar.OptionSetDescription("processing"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionClearOnFinish(),
			)
			orch := orchestrate.New(
				transport.NewClient(cfg.Transfer.PipelineURL, &http.Client{Timeout: cfg.Transfer.UploadTimeout}, logger),
				simulate.NewSimulator(cfg.Simulator.StageCadence, logger),
				cfg.Transfer.GraceInterval,
				logger,
			)
			orch.Progress = func(percent int, label string) {
				bar.Describe(label)
				_ = bar.Set(percent)
			}

			ds, err := orch.Process(cmd.Context(), batch)
			if err != nil {
				notifier.Push(notify.SeverityError, err.Error())
				return err
			}
			_ = bar.Finish()

			if ds.Origin == dataset.OriginSimulated {
				notifier.Push(notify.SeverityInfo, "server unavailable, showing simulated results")
			} else {
				notifier.Push(notify.SeveritySuccess,
					fmt.Sprintf("extracted %d record(s) from %d file(s)", len(ds.Records), ds.SuccessCount()))
			}

			// Export.
			svc := export.NewService(logger)
			content, filename, _, err := svc.Export(ds, export.Format(format))
			if err != nil {
				return err
			}
			outPath := filepath.Join(outDir, filename)
			if err := os.WriteFile(outPath, content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Printf("wrote %s (%d records, origin=%s)\n", outPath, len(ds.Records), ds.Origin)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "extraction server base URL (default from PIPELINE_URL)")
	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv, json or xlsx")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	return cmd
}

// rejectionSummary folds all rejections of one submission into a
// single message.
func rejectionSummary(rejected []intake.Rejection) string {
	msg := fmt.Sprintf("%d file(s) rejected:", len(rejected))
	for _, r := range rejected {
		msg += fmt.Sprintf(" %s (%s)", r.Name, r.Reason)
	}
	return msg
}

func renderNotification(m notify.Message) {
	var c *color.Color
	switch m.Severity {
	case notify.SeveritySuccess:
		c = color.New(color.FgGreen)
	case notify.SeverityError:
		c = color.New(color.FgRed)
	default:
		c = color.New(color.FgCyan)
	}
	_, _ = c.Fprintln(os.Stderr, m.Text)
}
