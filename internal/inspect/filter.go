package inspect

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SmitUplenchwar2687/Rewind/internal/protocol"
)

// Filter defines criteria for selecting records during inspection.
type Filter struct {
	Kinds  []protocol.Kind // Only include these kinds (empty = all)
	After  time.Duration   // Only include records after this session offset (zero = no limit)
	Before time.Duration   // Only include records before this session offset (zero = no limit)
}

// Match returns true if the entry passes the filter.
func (f *Filter) Match(e Entry) bool {
	if len(f.Kinds) > 0 && !contains(f.Kinds, e.Kind) {
		return false
	}
	if f.After > 0 && e.Elapsed <= f.After {
		return false
	}
	if f.Before > 0 && e.Elapsed >= f.Before {
		return false
	}
	return true
}

// ParseKinds resolves kind names ("fighter_state") or numbers ("15").
func ParseKinds(names []string) ([]protocol.Kind, error) {
	out := make([]protocol.Kind, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var k protocol.Kind
		if err := k.UnmarshalText([]byte(name)); err != nil {
			n, convErr := strconv.ParseUint(name, 10, 8)
			if convErr != nil || !protocol.Kind(n).Valid() {
				return nil, fmt.Errorf("unknown message kind %q", name)
			}
			k = protocol.Kind(n)
		}
		out = append(out, k)
	}
	return out, nil
}

func contains(ks []protocol.Kind, k protocol.Kind) bool {
	for _, v := range ks {
		if v == k {
			return true
		}
	}
	return false
}
