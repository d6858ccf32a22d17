package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/dtmfdecoder/internal/config"
	"github.com/ColonelBlimp/dtmfdecoder/internal/dtmf"
	"github.com/ColonelBlimp/dtmfdecoder/internal/observe"
	"github.com/ColonelBlimp/dtmfdecoder/internal/pcm"
	"github.com/ColonelBlimp/dtmfdecoder/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Decode the DTMF digits in a CSV or WAV recording",
	Long: `Decode the DTMF digits in a recording. CSV dumps hold comma-separated
16-bit samples and may carry a "# sample_rate: N" header; WAV files of any
PCM bit depth are mixed down to mono.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	addOutputFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("diagnostics", false, "include per-window results and FFT cross-checks")
	analyzeCmd.Flags().String("metrics-file", "", "write run metrics to this Prometheus textfile")
	rootCmd.AddCommand(analyzeCmd)
}

// addOutputFlags registers the flags shared by commands that print a report.
func addOutputFlags(c *cobra.Command) {
	c.Flags().String("output", "text", "report format: text, json or yaml")
	c.Flags().String("strategy", "region", "digit assembly: region or window")
	c.Flags().Float64("min-digit", 0, "drop digits shorter than this many milliseconds")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	s, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	buf, err := pcm.Load(args[0], s.SampleRate)
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}
	logger.Debug("recording loaded", "path", args[0], "buffer", buf.String())

	metricsFile, _ := cmd.Flags().GetString("metrics-file")
	a, err := analyze(cmd.Context(), s, logger, buf, metricsFile)
	if err != nil {
		return err
	}

	return writeReport(cmd, s, a, s.SpectralDiagnostics)
}

// analyze runs the detector over buf and, when metricsFile is set, exports
// the run as a Prometheus textfile.
func analyze(ctx context.Context, s *config.Settings, logger *slog.Logger, buf pcm.Buffer, metricsFile string) (*dtmf.Analysis, error) {
	cfg, err := s.DetectorConfig()
	if err != nil {
		return nil, err
	}
	det, err := dtmf.NewDetector(cfg, dtmf.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	a, err := det.Analyze(buf)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	if metricsFile != "" {
		if err := exportMetrics(ctx, a, metricsFile); err != nil {
			return nil, err
		}
		logger.Debug("metrics written", "path", metricsFile)
	}
	return a, nil
}

func exportMetrics(ctx context.Context, a *dtmf.Analysis, path string) error {
	p, err := observe.NewProvider()
	if err != nil {
		return err
	}
	defer func() { _ = p.Shutdown(ctx) }()

	m, err := observe.NewMetrics(p.MeterProvider())
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}
	m.RecordAnalysis(ctx, a)
	return p.WriteTextfile(path)
}

func writeReport(cmd *cobra.Command, s *config.Settings, a *dtmf.Analysis, windows bool) error {
	format, err := report.ParseFormat(s.Output)
	if err != nil {
		return err
	}
	return report.New(a, report.Options{Windows: windows}).Write(cmd.OutOrStdout(), format)
}
