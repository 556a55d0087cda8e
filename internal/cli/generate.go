package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/Rewind/internal/config"
	"github.com/SmitUplenchwar2687/Rewind/internal/generate"
)

func newGenerateCmd() *cobra.Command {
	var output string
	opts := generate.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sample session files and config",
		Long: `Generates sample data for testing and experimentation.

Use "generate session" to create a synthetic session file.
Use "generate config" to create an example config file (JSON, or TOML for .toml paths).`,
	}

	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Generate a synthetic session file",
		Long: `Creates a well-formed session file without a live source.

Patterns:
  steady    every frame is --delay apart
  burst     groups of frames in quick succession separated by long gaps
  ramp      frames start 4x slower and speed up to --delay`,
		Example: `  rewind generate session --output match.rwd --frames 600 --players 2
  rewind generate session --output drill.rwd --mode training --pattern burst
  rewind generate session --output cut.rwd --incomplete --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating file: %w", err)
			}
			defer f.Close()

			res, err := generate.Session(f, opts)
			if err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", output, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated %d records to %s\n", res.Records, output)
			fmt.Fprintf(out, "  Start:    %s\n", res.StartKind)
			fmt.Fprintf(out, "  Frames:   %d\n", res.Frames)
			fmt.Fprintf(out, "  Pattern:  %s\n", opts.Pattern)
			fmt.Fprintf(out, "  Duration: %s\n", res.Duration)
			fmt.Fprintf(out, "  Bytes:    %d\n", res.Bytes)
			return nil
		},
	}

	sessionCmd.Flags().StringVar(&output, "output", "session.rwd", "output file path")
	sessionCmd.Flags().StringVar(&opts.Mode, "mode", opts.Mode, "session mode (match, training)")
	sessionCmd.Flags().IntVar(&opts.Frames, "frames", opts.Frames, "number of fighter state frames")
	sessionCmd.Flags().IntVar(&opts.Players, "players", opts.Players, "players in a match")
	sessionCmd.Flags().Uint16Var(&opts.Stage, "stage", opts.Stage, "stage id")
	sessionCmd.Flags().DurationVar(&opts.Delay, "delay", opts.Delay, "base delay between frames")
	sessionCmd.Flags().StringVar(&opts.Pattern, "pattern", opts.Pattern, "timing pattern (steady, burst, ramp)")
	sessionCmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 = time based)")
	sessionCmd.Flags().BoolVar(&opts.Resume, "resume", false, "start with a resume kind instead of a start kind")
	sessionCmd.Flags().BoolVar(&opts.Incomplete, "incomplete", false, "omit the end marker")

	var configOutput string
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Generate an example config file",
		Example: `  rewind generate config --output rewind.json
  rewind generate config --output rewind.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteExample(configOutput); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated example config at %s\n", configOutput)
			return nil
		},
	}

	configCmd.Flags().StringVar(&configOutput, "output", "rewind.json", "output file path")

	cmd.AddCommand(sessionCmd, configCmd)
	return cmd
}
