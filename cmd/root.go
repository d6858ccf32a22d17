// cmd/root.go
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ColonelBlimp/dtmfdecoder/internal/config"
	"github.com/ColonelBlimp/dtmfdecoder/internal/dtmf"
)

var rootCmd = &cobra.Command{
	Use:   "dtmfdecoder",
	Short: "DTMF (touch-tone) decoder for recorded and live audio",
	Long: `Decodes DTMF keypresses from 16-bit PCM recordings (CSV dumps or WAV files)
or from a capture device. A bank of Goertzel filters classifies overlapping
windows; the detection threshold is calibrated from the recording's own noise.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// flagKeys maps command line flags to the config keys they override.
var flagKeys = map[string]string{
	"window-ms":   "window_ms",
	"overlap":     "overlap",
	"gate":        "energy_gate_dbfs",
	"twist":       "twist_ratio",
	"sample-rate": "sample_rate",
	"debug":       "debug",
	"log-level":   "log_level",
	"output":      "output",
	"strategy":    "strategy",
	"diagnostics": "spectral_diagnostics",
	"min-digit":   "min_digit_ms",
	"workers":     "sweep_workers",
	"seconds":     "record_seconds",
	"device":      "device_index",
}

func init() {
	d := dtmf.DefaultConfig()

	// Global flags (override config file)
	flags := rootCmd.PersistentFlags()
	flags.Float64P("window-ms", "w", d.WindowMs, "analysis window length in milliseconds")
	flags.Float64P("overlap", "o", d.Overlap, "window overlap fraction [0, 1)")
	flags.Float64P("gate", "g", d.EnergyGateDBFS, "energy gate in dBFS")
	flags.Float64P("twist", "t", d.TwistRatio, "maximum twist ratio between row and column tone")
	flags.Float64P("sample-rate", "r", 22050, "sample rate for inputs without one, and for recording")
	flags.BoolP("debug", "D", false, "enable debug logging")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
}

// initConfig binds the flags of the running command, then loads the config
// file and environment.
func initConfig(cmd *cobra.Command, _ []string) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}
	if err := config.Init(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// loadSettings validates the merged configuration and installs the logger.
func loadSettings(cmd *cobra.Command) (*config.Settings, *slog.Logger, error) {
	s, err := config.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger := newLogger(cmd.ErrOrStderr(), s.LogLevel, s.Debug)
	slog.SetDefault(logger)
	return s, logger, nil
}

func newLogger(w io.Writer, level string, debug bool) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if debug {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
