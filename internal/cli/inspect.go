package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/Rewind/internal/inspect"
	"github.com/SmitUplenchwar2687/Rewind/internal/session"
)

func newInspectCmd() *cobra.Command {
	var (
		kinds      []string
		after      time.Duration
		before     time.Duration
		decode     bool
		verbose    bool
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "List the records of a session file",
		Long: `Prints one line per record: index, byte offset, delay, session time, kind
and size. --decode adds the parsed session start and fighter state fields,
--verbose adds a hex dump of each payload.

Kinds can be given by name (fighter_state) or number (15).`,
		Example: `  rewind inspect match.rwd
  rewind inspect match.rwd --kinds match_start,match_end
  rewind inspect match.rwd --kinds fighter_state --decode --after 10s --before 12s
  rewind inspect match.rwd --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := inspect.ParseKinds(kinds)
			if err != nil {
				return err
			}
			opts := inspect.Options{
				Filter: inspect.Filter{Kinds: ks, After: after, Before: before},
				Decode: decode,
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening file: %w", err)
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			if outputJSON {
				entries := []inspect.Entry{}
				stats, walkErr := inspect.Walk(f, opts, func(e inspect.Entry) error {
					entries = append(entries, e)
					return nil
				})
				res := map[string]interface{}{
					"entries": entries,
					"summary": stats,
				}
				if walkErr != nil {
					res["error"] = walkErr.Error()
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
				return walkErr
			}

			tw := inspect.NewTextWriter(out, verbose)
			stats, walkErr := inspect.Walk(f, opts, tw.Write)
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(out)
			inspect.FormatStats(out, stats)
			if walkErr != nil {
				return fmt.Errorf("reading %s: %w", args[0], walkErr)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&kinds, "kinds", nil, "only show these kinds (comma-separated names or numbers)")
	cmd.Flags().DurationVar(&after, "after", 0, "only show records after this session time")
	cmd.Flags().DurationVar(&before, "before", 0, "only show records before this session time")
	cmd.Flags().BoolVar(&decode, "decode", false, "decode session starts and fighter states")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "hex dump every payload")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output entries and summary as JSON")

	return cmd
}

func newVerifyCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Check that a session file is well formed",
		Long: `Checks that the file opens with a session start, carries only fighter state
frames in between and, if complete, closes with a single end marker.

Exits non-zero when the file is malformed. A file without an end marker is
valid but reported as incomplete.`,
		Example: `  rewind verify match.rwd
  rewind verify match.rwd --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening file: %w", err)
			}
			defer f.Close()

			rep, verr := session.Verify(f)
			out := cmd.OutOrStdout()
			if outputJSON {
				res := map[string]interface{}{"valid": verr == nil, "report": rep}
				if verr != nil {
					res["error"] = verr.Error()
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else if verr == nil {
				fmt.Fprintf(out, "%s: ok\n", args[0])
				fmt.Fprintf(out, "  Start:         %s\n", rep.StartKind)
				fmt.Fprintf(out, "  Records:       %d\n", rep.Records)
				fmt.Fprintf(out, "  State frames:  %d\n", rep.StateFrames)
				fmt.Fprintf(out, "  Complete:      %t\n", rep.Complete)
				fmt.Fprintf(out, "  Duration:      %s\n", time.Duration(rep.TotalDelay)*time.Millisecond)
				fmt.Fprintf(out, "  Bytes:         %d\n", rep.Bytes)
			}
			if verr != nil {
				return fmt.Errorf("%s: %w", args[0], verr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "output the report as JSON")
	return cmd
}
