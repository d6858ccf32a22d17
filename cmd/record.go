package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/dtmfdecoder/internal/audio"
	"github.com/ColonelBlimp/dtmfdecoder/internal/config"
	"github.com/ColonelBlimp/dtmfdecoder/internal/recovery"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from a capture device and decode the DTMF digits",
	Long: `Records 16-bit mono audio from a capture device and decodes it once the
recording ends. Ctrl+C stops the recording early; whatever was captured is
still decoded.`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio capture devices",
	Args:  cobra.NoArgs,
	RunE:  runDevices,
}

func init() {
	addOutputFlags(recordCmd)
	recordCmd.Flags().Float64("seconds", 5, "recording length in seconds")
	recordCmd.Flags().IntP("device", "d", -1, "capture device index, -1 for the default")
	recordCmd.Flags().String("metrics-file", "", "write run metrics to this Prometheus textfile")
	rootCmd.AddCommand(recordCmd, devicesCmd)
}

func newCapture(s *config.Settings) *audio.Capture {
	return audio.New(audio.Config{
		DeviceIndex: s.DeviceIndex,
		SampleRate:  uint32(s.SampleRate),
		BufferSize:  uint32(s.BufferSize),
	})
}

func runRecord(cmd *cobra.Command, _ []string) error {
	s, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	capture := newCapture(s)
	if err := capture.Init(); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	defer capture.Close()
	// Release the device if the decoder panics mid-recording
	defer recovery.HandlePanicFunc(func() { _ = capture.Close() })

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var meter audio.LevelMeter
	capture.SetCallback(meter.Observe)
	levelCtx, stopLevel := context.WithCancel(ctx)
	go reportLevel(levelCtx, logger, &meter)

	frames := int(s.RecordSeconds * s.SampleRate)
	logger.Info("recording", "seconds", s.RecordSeconds, "rate", s.SampleRate, "device", s.DeviceIndex)

	buf, err := capture.Record(ctx, frames)
	stopLevel()
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) && buf.Len() > 0:
		logger.Info("recording interrupted", "captured", buf.Duration())
	default:
		return fmt.Errorf("record: %w", err)
	}
	_ = capture.Stop()

	metricsFile, _ := cmd.Flags().GetString("metrics-file")
	a, err := analyze(cmd.Context(), s, logger, buf, metricsFile)
	if err != nil {
		return err
	}
	return writeReport(cmd, s, a, s.SpectralDiagnostics)
}

// reportLevel logs the peak input level once a second until ctx ends.
func reportLevel(ctx context.Context, logger *slog.Logger, meter *audio.LevelMeter) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("input level", "peak_dbfs", math.Round(meter.Peak()*10)/10)
		}
	}
}

func runDevices(cmd *cobra.Command, _ []string) error {
	s, _, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	capture := newCapture(s)
	if err := capture.Init(); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	defer capture.Close()

	devices, err := capture.ListDevices()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Index\tDefault\tName")
	for _, d := range devices {
		def := ""
		if d.IsDefault {
			def = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", d.Index, def, d.Name)
	}
	return tw.Flush()
}
