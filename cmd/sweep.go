package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/dtmfdecoder/internal/pcm"
	"github.com/ColonelBlimp/dtmfdecoder/internal/report"
	"github.com/ColonelBlimp/dtmfdecoder/internal/sweep"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <file>",
	Short: "Decode a recording across a grid of detector settings",
	Long: `Runs the detector once per combination of window length, overlap, twist
ratio and threshold multiplier, and reports which combinations decode the
expected sequence.`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().String("expect", "", "sequence the recording is known to contain")
	sweepCmd.Flags().Int("workers", 0, "parallel detector runs, 0 uses all CPUs")
	sweepCmd.Flags().String("output", "text", "report format: text, json or yaml")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	s, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(s.Output)
	if err != nil {
		return err
	}

	buf, err := pcm.Load(args[0], s.SampleRate)
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}
	base, err := s.DetectorConfig()
	if err != nil {
		return err
	}
	expect, _ := cmd.Flags().GetString("expect")

	runner := sweep.Runner{Base: base, Workers: s.SweepWorkers, Logger: logger}
	results, err := runner.Run(cmd.Context(), buf, sweep.DefaultGrid(), expect)
	if err != nil {
		return err
	}
	logger.Debug("sweep finished", "points", len(results), "matches", len(sweep.Matches(results)))

	return report.NewSweep(results, expect).Write(cmd.OutOrStdout(), format)
}
