package metric

import (
	"fmt"
	"slices"
)

// DefaultName is the metric-name suffix that collapses onto its prefix.
const DefaultName = "default"

// Combine returns the sum of two values. A nil operand is the identity.
//
// Values combine only with values of the same kind, with one exception: a
// Count of exactly 1 folded into a Distribution is recorded as one sample at
// boundary 1. The exception applies in either operand order.
func Combine(a, b Value) (Value, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}

	switch x := a.(type) {
	case Count:
		switch y := b.(type) {
		case Count:
			return x + y, nil
		case *Histogram:
			if x == 1 {
				return withSample(y, 1), nil
			}
		}
	case *Histogram:
		switch y := b.(type) {
		case *Histogram:
			return MergeHistograms(x, y), nil
		case Count:
			if y == 1 {
				return withSample(x, 1), nil
			}
		}
	case Messages:
		if y, ok := b.(Messages); ok {
			if len(x) == 0 {
				return y, nil
			}
			if len(y) == 0 {
				return x, nil
			}
			return append(slices.Clone(x), y...), nil
		}
	case Label:
		if y, ok := b.(Label); ok && x == y {
			return x, nil
		}
	}
	return nil, fmt.Errorf("cannot combine %s %s with %s %s: %w", a.Kind(), describe(a), b.Kind(), describe(b), ErrIncompatibleKinds)
}

// withSample returns a copy of h with one extra observation at value.
func withSample(h *Histogram, value int64) *Histogram {
	out := MergeHistograms(h, NewHistogram(value))
	_ = out.Insert(value, 1, true)
	return out
}

func describe(v Value) string {
	switch t := v.(type) {
	case Count:
		return fmt.Sprintf("(%d)", int64(t))
	case Label:
		return fmt.Sprintf("(%q)", string(t))
	case Messages:
		return fmt.Sprintf("(%d messages)", len(t))
	case *Histogram:
		return fmt.Sprintf("(%d samples)", t.Total())
	default:
		return ""
	}
}

// ConcatName joins a prefix and a metric name with '_'. An empty prefix
// yields name; an empty or "default" name yields prefix.
func ConcatName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if name == "" || name == DefaultName {
		return prefix
	}
	return prefix + "_" + name
}

// MergeInto combines every entry of src, renamed with prefix, into dst.
// dst is left partially updated when an error is returned; callers treat the
// unit of work that produced it as failed.
func MergeInto(dst, src Map, prefix string) error {
	for _, k := range src.Names() {
		name := ConcatName(prefix, k)
		combined, err := Combine(dst[name], src[k])
		if err != nil {
			return fmt.Errorf("metric %q: %w", name, err)
		}
		if combined == nil {
			continue
		}
		dst[name] = combined
	}
	return nil
}

// WithPrefix returns a new map whose keys are renamed with prefix.
// Keys that collide after renaming are combined.
func WithPrefix(prefix string, m Map) (Map, error) {
	out := make(Map, len(m))
	if err := MergeInto(out, m, prefix); err != nil {
		return nil, err
	}
	return out, nil
}

// Sum reduces maps with MergeInto into a fresh map.
func Sum(maps ...Map) (Map, error) {
	out := make(Map)
	for _, m := range maps {
		if err := MergeInto(out, m, ""); err != nil {
			return nil, err
		}
	}
	return out, nil
}
