// Package metric defines the metric values produced by structural queries
// and the algebra used to combine them across files, directories and groups.
package metric

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

// Value kinds.
const (
	KindCount Kind = iota
	KindDistribution
	KindMessages
	KindLabel
)

// String returns the lowercase variant name.
func (k Kind) String() string {
	switch k {
	case KindCount:
		return "count"
	case KindDistribution:
		return "distribution"
	case KindMessages:
		return "messages"
	case KindLabel:
		return "label"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single metric value. The set of implementations is closed:
// Count, *Histogram, Messages and Label. A nil Value means absent.
type Value interface {
	Kind() Kind
	sealed()
}

// Count is a non-negative scalar tally.
type Count int64

// Kind implements Value.
func (Count) Kind() Kind { return KindCount }
func (Count) sealed()    {}

// Messages is an ordered list of diagnostic strings (e.g. TODO comments).
type Messages []string

// Kind implements Value.
func (Messages) Kind() Kind { return KindMessages }
func (Messages) sealed()    {}

// String joins the messages with ';'.
func (m Messages) String() string {
	return strings.Join(m, ";")
}

// Label is identity metadata attached to a file, such as its language.
// Labels are exported verbatim and never summed.
type Label string

// Kind implements Value.
func (Label) Kind() Kind { return KindLabel }
func (Label) sealed()    {}

// Kind implements Value.
func (*Histogram) Kind() Kind { return KindDistribution }
func (*Histogram) sealed()    {}

// Map maps metric names to values. Absent keys are the identity element.
type Map map[string]Value

// Names returns the metric names in ascending order.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Clone returns a copy of the map. Histograms are deep-copied.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// Count returns the named count and whether it is present.
func (m Map) Count(name string) (int64, bool) {
	c, ok := m[name].(Count)
	return int64(c), ok
}

func cloneValue(v Value) Value {
	switch t := v.(type) {
	case *Histogram:
		return t.Clone()
	case Messages:
		return slices.Clone(t)
	default:
		return v
	}
}

// encodedValue is the JSON envelope used to persist a Value.
type encodedValue struct {
	Kind      string     `json:"kind"`
	Count     int64      `json:"count,omitempty"`
	Histogram *Histogram `json:"histogram,omitempty"`
	Messages  []string   `json:"messages,omitempty"`
	Label     string     `json:"label,omitempty"`
}

// MarshalJSON encodes the map with an explicit kind per entry so that it can
// be restored losslessly from the metric cache.
func (m Map) MarshalJSON() ([]byte, error) {
	out := make(map[string]encodedValue, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case Count:
			out[k] = encodedValue{Kind: KindCount.String(), Count: int64(t)}
		case *Histogram:
			out[k] = encodedValue{Kind: KindDistribution.String(), Histogram: t}
		case Messages:
			out[k] = encodedValue{Kind: KindMessages.String(), Messages: t}
		case Label:
			out[k] = encodedValue{Kind: KindLabel.String(), Label: string(t)}
		case nil:
			continue
		default:
			return nil, fmt.Errorf("metric %q: unsupported value %T", k, v)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a map written by MarshalJSON.
func (m *Map) UnmarshalJSON(data []byte) error {
	var raw map[string]encodedValue
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Map, len(raw))
	for k, ev := range raw {
		switch ev.Kind {
		case KindCount.String():
			out[k] = Count(ev.Count)
		case KindDistribution.String():
			if ev.Histogram == nil {
				ev.Histogram = NewHistogram()
			}
			out[k] = ev.Histogram
		case KindMessages.String():
			out[k] = Messages(ev.Messages)
		case KindLabel.String():
			out[k] = Label(ev.Label)
		default:
			return fmt.Errorf("metric %q: unknown kind %q", k, ev.Kind)
		}
	}
	*m = out
	return nil
}
