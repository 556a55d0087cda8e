package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/Rewind/internal/replay"
)

func newPlayCmd() *cobra.Command {
	var (
		addr          string
		speed         float64
		writeTimeout  time.Duration
		acceptTimeout time.Duration
		hsMajor       uint8
		hsMinor       uint8
		hsChecksum    uint32
		monitorAddr   string
		fromArchive   string
		configPath    string
		outputJSON    bool
		storage       storageOptions
	)

	cmd := &cobra.Command{
		Use:   "play <input-file>",
		Short: "Replay a session file to one connecting client",
		Long: `Listens for a single client, sends it the protocol handshake and then every
recorded payload, waiting the recorded delay before each one.

Speed: 0 = instant, 1 = real-time, 2 = twice as fast, 0.5 = half speed

A replay that loses its client or hits a timeout still prints its summary
and exits non-zero. A file without an end marker replays as "truncated".`,
		Example: `  rewind play match.rwd
  rewind play match.rwd --addr :42069 --speed 4
  rewind play --from-archive drills --storage redis
  rewind play match.rwd --handshake-major 1 --handshake-minor 2 --handshake-checksum 0xdeadbeef`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (fromArchive != "") {
				return fmt.Errorf("exactly one of <input-file> or --from-archive is required")
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Player.Addr = addr
			}
			if cmd.Flags().Changed("speed") {
				cfg.Player.Speed = speed
			}
			if cmd.Flags().Changed("write-timeout") {
				cfg.Player.WriteTimeout = writeTimeout
			}
			if cmd.Flags().Changed("accept-timeout") {
				cfg.Player.AcceptTimeout = acceptTimeout
			}
			if cmd.Flags().Changed("handshake-major") {
				cfg.Player.Handshake.Major = hsMajor
			}
			if cmd.Flags().Changed("handshake-minor") {
				cfg.Player.Handshake.Minor = hsMinor
			}
			if cmd.Flags().Changed("handshake-checksum") {
				cfg.Player.Handshake.Checksum = hsChecksum
			}
			if err := cfg.Player.Validate(); err != nil {
				return err
			}
			log, err := newLogger(cmd, cfg.Log)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd)
			defer stop()

			var (
				src  io.Reader
				name string
			)
			if fromArchive != "" {
				a, err := storage.open(cmd, cfg.Archive, log)
				if err != nil {
					return err
				}
				meta, data, err := a.Get(ctx, fromArchive)
				a.Close()
				if err != nil {
					return err
				}
				src, name = bytes.NewReader(data), meta.Name+" ("+meta.ID+")"
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening file: %w", err)
				}
				defer f.Close()
				src, name = f, args[0]
			}

			var m *monitor
			if monitorAddr != "" {
				if m, err = startMonitor(monitorAddr, nil, log); err != nil {
					return err
				}
				defer m.stop()
				log.Info().Str("dashboard", "http://"+m.addr+"/dashboard/").Msg("monitor started")
			}

			if !outputJSON {
				fmt.Fprintf(cmd.OutOrStdout(), "Replaying %s on %s at %gx speed...\n", name, cfg.Player.Addr, cfg.Player.Speed)
			}

			p := replay.New(cfg.Player, replay.WithLogger(log), replay.WithSink(m.sink()))
			sum, err := p.ListenAndServe(ctx, src)
			if err != nil {
				return err
			}
			if err := printPlaySummary(cmd.OutOrStdout(), sum, outputJSON); err != nil {
				return err
			}

			switch sum.Outcome {
			case replay.OutcomeComplete, replay.OutcomeTruncated, replay.OutcomeCancelled:
				return nil
			default:
				return fmt.Errorf("replay %s: %w", sum.Outcome, sum.Err)
			}
		},
	}

	def := replay.DefaultConfig()
	cmd.Flags().StringVar(&addr, "addr", def.Addr, "address to accept the replay client on")
	cmd.Flags().Float64Var(&speed, "speed", def.Speed, "replay speed (0=instant, 1=real-time, 2=2x)")
	cmd.Flags().DurationVar(&writeTimeout, "write-timeout", def.WriteTimeout, "max wait per send (0 = no limit)")
	cmd.Flags().DurationVar(&acceptTimeout, "accept-timeout", def.AcceptTimeout, "max wait for a client (0 = no limit)")
	cmd.Flags().Uint8Var(&hsMajor, "handshake-major", def.Handshake.Major, "protocol major version sent in the handshake")
	cmd.Flags().Uint8Var(&hsMinor, "handshake-minor", def.Handshake.Minor, "protocol minor version sent in the handshake")
	cmd.Flags().Uint32Var(&hsChecksum, "handshake-checksum", def.Handshake.Checksum, "mapping info checksum sent in the handshake")
	cmd.Flags().StringVar(&monitorAddr, "monitor", "", "serve the live monitor on this address while replaying")
	cmd.Flags().StringVar(&fromArchive, "from-archive", "", "replay the archived session with this id or name")
	cmd.Flags().StringVar(&configPath, "config", "", "path to JSON or TOML config file")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "print the summary as JSON")
	storage.addFlags(cmd)

	return cmd
}

func printPlaySummary(w io.Writer, sum *replay.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "--- Replay Summary ---")
	fmt.Fprintf(w, "  Client:        %s\n", sum.Peer)
	fmt.Fprintf(w, "  Outcome:       %s\n", sum.Outcome)
	if sum.Reason != "" {
		fmt.Fprintf(w, "  Error:         %s\n", sum.Reason)
	}
	fmt.Fprintf(w, "  Start:         %s\n", sum.StartKind)
	fmt.Fprintf(w, "  Records:       %d\n", sum.Records)
	fmt.Fprintf(w, "  State frames:  %d\n", sum.StateFrames)
	fmt.Fprintf(w, "  Bytes sent:    %d\n", sum.Bytes)
	fmt.Fprintf(w, "  Recorded time: %s\n", sum.FileDelay)
	fmt.Fprintf(w, "  Waited:        %s\n", sum.Waited.Round(time.Millisecond))
	fmt.Fprintf(w, "  Wall time:     %s\n", sum.WallDuration.Round(time.Millisecond))
	return nil
}
