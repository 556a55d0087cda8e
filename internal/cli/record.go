package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/Rewind/internal/recorder"
)

func newRecordCmd() *cobra.Command {
	var (
		timing      string
		fixedDelay  time.Duration
		readTimeout time.Duration
		dialTimeout time.Duration
		monitorAddr string
		archiveName string
		configPath  string
		outputJSON  bool
		storage     storageOptions
	)

	cmd := &cobra.Command{
		Use:   "record <address> <port> <output-file>",
		Short: "Capture one live session into a session file",
		Long: `Connects to a fighter-state source, asks it to resume the running session and
captures everything from the next session start up to its end marker.

Timing:
  fixed      every frame is stamped with --fixed-delay (default 16ms)
  measured   every frame is stamped with the time since the previous record

The file is flushed record by record, so an interrupted capture still leaves
a valid, replayable prefix.`,
		Example: `  rewind record 192.168.1.20 4242 match.rwd
  rewind record localhost 4242 match.rwd --timing measured --monitor :8080
  rewind record localhost 4242 drill.rwd --archive drills --storage redis`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, portArg, output := args[0], args[1], args[2]
			port, err := strconv.Atoi(portArg)
			if err != nil || port <= 0 || port > 65535 {
				return fmt.Errorf("invalid port %q", portArg)
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("timing") {
				cfg.Recorder.Timing = recorder.Timing(timing)
			}
			if cmd.Flags().Changed("fixed-delay") {
				cfg.Recorder.FixedDelay = fixedDelay
			}
			if cmd.Flags().Changed("read-timeout") {
				cfg.Recorder.ReadTimeout = readTimeout
			}
			if cmd.Flags().Changed("dial-timeout") {
				cfg.Recorder.DialTimeout = dialTimeout
			}
			if err := cfg.Recorder.Validate(); err != nil {
				return err
			}
			log, err := newLogger(cmd, cfg.Log)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd)
			defer stop()

			var m *monitor
			if monitorAddr != "" {
				if m, err = startMonitor(monitorAddr, nil, log); err != nil {
					return err
				}
				defer m.stop()
				log.Info().Str("dashboard", "http://"+m.addr+"/dashboard/").Msg("monitor started")
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating file: %w", err)
			}
			defer f.Close()

			rec := recorder.New(cfg.Recorder, recorder.WithLogger(log), recorder.WithSink(m.sink()))
			sum, capErr := rec.Record(ctx, net.JoinHostPort(host, strconv.Itoa(port)), f)
			if err := f.Close(); err != nil && capErr == nil {
				capErr = fmt.Errorf("closing %s: %w", output, err)
			}
			if sum != nil {
				if err := printRecordSummary(cmd.OutOrStdout(), output, sum, outputJSON); err != nil {
					return err
				}
			}
			if capErr != nil {
				return fmt.Errorf("capture failed: %w", capErr)
			}

			if archiveName != "" {
				data, err := os.ReadFile(output)
				if err != nil {
					return fmt.Errorf("reading capture for archive: %w", err)
				}
				a, err := storage.open(cmd, cfg.Archive, log)
				if err != nil {
					return err
				}
				defer a.Close()
				meta, err := a.Put(ctx, archiveName, data)
				if err != nil {
					return err
				}
				if !outputJSON {
					fmt.Fprintf(cmd.OutOrStdout(), "Archived as %s (id %s)\n", meta.Name, meta.ID)
				}
			}
			return nil
		},
	}

	def := recorder.DefaultConfig()
	cmd.Flags().StringVar(&timing, "timing", string(def.Timing), "delay source (fixed, measured)")
	cmd.Flags().DurationVar(&fixedDelay, "fixed-delay", def.FixedDelay, "per-frame delay in fixed timing mode")
	cmd.Flags().DurationVar(&readTimeout, "read-timeout", def.ReadTimeout, "max wait per receive (0 = no limit)")
	cmd.Flags().DurationVar(&dialTimeout, "dial-timeout", def.DialTimeout, "max wait to connect to the source")
	cmd.Flags().StringVar(&monitorAddr, "monitor", "", "serve the live monitor on this address while recording")
	cmd.Flags().StringVar(&archiveName, "archive", "", "also store the finished capture in the archive under this name")
	cmd.Flags().StringVar(&configPath, "config", "", "path to JSON or TOML config file")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "print the summary as JSON")
	storage.addFlags(cmd)

	return cmd
}

func printRecordSummary(w io.Writer, output string, sum *recorder.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "--- Capture Summary ---")
	fmt.Fprintf(w, "  File:        %s\n", output)
	fmt.Fprintf(w, "  Session:     %s\n", sum.SessionID)
	fmt.Fprintf(w, "  Start:       %s\n", sum.StartKind)
	fmt.Fprintf(w, "  Timing:      %s\n", sum.Timing)
	fmt.Fprintf(w, "  Frames:      %d\n", sum.Frames)
	fmt.Fprintf(w, "  Records:     %d\n", sum.Records)
	fmt.Fprintf(w, "  Bytes:       %d\n", sum.Bytes)
	if sum.Discarded > 0 {
		fmt.Fprintf(w, "  Discarded:   %d\n", sum.Discarded)
	}
	if sum.Resets > 0 {
		fmt.Fprintf(w, "  Resets:      %d\n", sum.Resets)
	}
	fmt.Fprintf(w, "  Complete:    %t\n", sum.Complete)
	fmt.Fprintf(w, "  Duration:    %s\n", sum.Duration.Round(time.Millisecond))
	return nil
}
