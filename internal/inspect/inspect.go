// Package inspect lists the records of a session file for humans and scripts.
package inspect

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/SmitUplenchwar2687/Rewind/internal/protocol"
	"github.com/SmitUplenchwar2687/Rewind/internal/session"
)

// Entry describes one record of a session file.
type Entry struct {
	Index   int                        `json:"index"`
	Offset  int64                      `json:"offset"`
	DelayMs uint64                     `json:"delay_ms"`
	Elapsed time.Duration              `json:"elapsed"` // session offset, sum of delays so far
	Kind    protocol.Kind              `json:"kind"`
	Size    int                        `json:"size"`
	Payload []byte                     `json:"-"`
	Start   protocol.SessionStart      `json:"start,omitempty"`
	State   *protocol.FighterStateView `json:"state,omitempty"`
}

// Options control a Walk.
type Options struct {
	Filter Filter
	// Decode fills Entry.Start and Entry.State where the payload allows it.
	Decode bool
}

// Stats aggregates what a Walk saw.
type Stats struct {
	Total    int            `json:"total"`
	Matched  int            `json:"matched"`
	PerKind  map[string]int `json:"per_kind"`
	Duration time.Duration  `json:"duration"` // session length by encoded delays
	Bytes    int64          `json:"bytes"`
}

// Walk reads every record in r and calls fn for those that pass the filter.
// A truncated tail is reported as an error after the complete records have
// been delivered.
func Walk(r io.Reader, opts Options, fn func(Entry) error) (*Stats, error) {
	stats := &Stats{PerKind: make(map[string]int)}
	rd := session.NewReader(r)

	var elapsed time.Duration
	for {
		offset := rd.Offset()
		rec, err := rd.Next(nil)
		stats.Bytes = rd.Offset()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}

		elapsed += time.Duration(rec.DelayMs) * time.Millisecond
		stats.Total++
		stats.Duration = elapsed

		e := Entry{
			Index:   stats.Total - 1,
			Offset:  offset,
			DelayMs: rec.DelayMs,
			Elapsed: elapsed,
			Size:    len(rec.Payload),
			Payload: rec.Payload,
		}
		if len(rec.Payload) > 0 {
			e.Kind = protocol.Kind(rec.Payload[0])
		}
		stats.PerKind[e.Kind.String()]++

		if !opts.Filter.Match(e) {
			continue
		}
		stats.Matched++
		if opts.Decode {
			decode(&e)
		}
		if fn != nil {
			if err := fn(e); err != nil {
				return stats, err
			}
		}
	}
}

func decode(e *Entry) {
	switch {
	case e.Kind.IsStart():
		if start, err := protocol.ParseSessionStart(e.Payload); err == nil {
			e.Start = start
		}
	case e.Kind.IsStateFrame():
		if v, err := protocol.DecodeFighterState(e.Payload); err == nil {
			e.State = &v
		}
	}
}

// TextWriter prints entries as an aligned table.
type TextWriter struct {
	tw      *tabwriter.Writer
	verbose bool
}

// NewTextWriter writes a table to w. Verbose adds a hex dump of each payload.
func NewTextWriter(w io.Writer, verbose bool) *TextWriter {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tOFFSET\tDELAY\tELAPSED\tKIND\tSIZE\tDETAIL")
	return &TextWriter{tw: tw, verbose: verbose}
}

func (t *TextWriter) Write(e Entry) error {
	_, err := fmt.Fprintf(t.tw, "%d\t%d\t%dms\t%s\t%s\t%d\t%s\n",
		e.Index, e.Offset, e.DelayMs, e.Elapsed, e.Kind, e.Size, detail(e))
	if err != nil {
		return err
	}
	if t.verbose && len(e.Payload) > 0 {
		_, err = fmt.Fprintf(t.tw, "\t\t\t\t\t\t%s\n", hex.EncodeToString(e.Payload))
	}
	return err
}

func (t *TextWriter) Flush() error { return t.tw.Flush() }

func detail(e Entry) string {
	switch {
	case e.State != nil:
		s := e.State
		return fmt.Sprintf("frame=%d entry=%d pos=(%.1f,%.1f) dmg=%.1f stocks=%d status=%d",
			s.Frame, s.EntryID, s.PosX, s.PosY, s.Damage, s.Stocks, s.Status)
	case e.Start != nil:
		switch st := e.Start.(type) {
		case *protocol.MatchInfo:
			tags := make([]string, len(st.Tags))
			for i, tag := range st.Tags {
				tags[i] = fmt.Sprintf("%q", tag)
			}
			return fmt.Sprintf("stage=%d players=%d fighters=%v tags=[%s]",
				st.Stage, st.PlayerCount(), st.FighterIDs, strings.Join(tags, " "))
		case *protocol.TrainingInfo:
			return fmt.Sprintf("stage=%d body=%v", st.Stage(), st.Body)
		}
	}
	return ""
}

// FormatStats renders the per-kind counts sorted by kind name.
func FormatStats(w io.Writer, s *Stats) {
	fmt.Fprintln(w, "--- Session Summary ---")
	fmt.Fprintf(w, "  Records:   %d\n", s.Total)
	fmt.Fprintf(w, "  Matched:   %d\n", s.Matched)
	fmt.Fprintf(w, "  Bytes:     %d\n", s.Bytes)
	fmt.Fprintf(w, "  Duration:  %s\n", s.Duration)

	kinds := make([]string, 0, len(s.PerKind))
	for k := range s.PerKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Fprintln(w, "  Per kind:")
	for _, k := range kinds {
		fmt.Fprintf(w, "    %s: %d\n", k, s.PerKind[k])
	}
}
