package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/Rewind/internal/archive"
)

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Manage the session archive",
		Long: `Stores session files in a named library. Files are verified before they are
accepted and kept zstd-compressed.

Entries are addressed by id or by name; a name resolves to its newest entry.
The memory backend only lives as long as one rewind process, so use
--storage redis to keep sessions between commands.`,
	}

	cmd.AddCommand(
		newArchivePutCmd(),
		newArchiveGetCmd(),
		newArchiveListCmd(),
		newArchiveRmCmd(),
	)
	return cmd
}

// archiveCommand wires config, logging and storage flags around fn.
func archiveCommand(cmd *cobra.Command, fn func(cmd *cobra.Command, args []string, a *archive.Archive) error) *cobra.Command {
	var (
		configPath string
		storage    storageOptions
	)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		log, err := newLogger(cmd, cfg.Log)
		if err != nil {
			return err
		}
		a, err := storage.open(cmd, cfg.Archive, log)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to JSON or TOML config file")
	storage.addFlags(cmd)
	return cmd
}

func newArchivePutCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:     "put <file>",
		Short:   "Verify and store a session file",
		Example: `  rewind archive put match.rwd --name finals --storage redis`,
		Args:    cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&name, "name", "", "entry name (default: file name without extension)")

	return archiveCommand(cmd, func(cmd *cobra.Command, args []string, a *archive.Archive) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		if name == "" {
			base := filepath.Base(args[0])
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}
		meta, err := a.Put(cmd.Context(), name, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %s as %s (id %s, %d -> %d bytes)\n",
			args[0], meta.Name, meta.ID, meta.Size, meta.Stored)
		return nil
	})
}

func newArchiveGetCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "get <id-or-name>",
		Short:   "Write an archived session to a file",
		Example: `  rewind archive get finals --output finals.rwd --storage redis`,
		Args:    cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&output, "output", "", "output file path (default: <name>.rwd)")

	return archiveCommand(cmd, func(cmd *cobra.Command, args []string, a *archive.Archive) error {
		meta, data, err := a.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if output == "" {
			output = meta.Name + ".rwd"
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("writing file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (id %s) to %s\n", meta.Name, meta.ID, output)
		return nil
	})
}

func newArchiveListCmd() *cobra.Command {
	var outputJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived sessions, newest first",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")

	return archiveCommand(cmd, func(cmd *cobra.Command, args []string, a *archive.Archive) error {
		metas, err := a.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if outputJSON {
			if metas == nil {
				metas = []archive.Meta{}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(metas)
		}
		if len(metas) == 0 {
			fmt.Fprintln(out, "No archived sessions.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSTART\tFRAMES\tCOMPLETE\tDURATION\tSIZE\tCREATED")
		for _, m := range metas {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\t%s\t%d\t%s\n",
				m.ID, m.Name, m.StartKind, m.Frames, m.Complete, m.Duration, m.Size,
				m.CreatedAt.Local().Format(time.DateTime))
		}
		return tw.Flush()
	})
}

func newArchiveRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id-or-name>",
		Short:   "Remove an archived session",
		Example: `  rewind archive rm finals --storage redis`,
		Args:    cobra.ExactArgs(1),
	}

	return archiveCommand(cmd, func(cmd *cobra.Command, args []string, a *archive.Archive) error {
		if err := a.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return nil
	})
}
