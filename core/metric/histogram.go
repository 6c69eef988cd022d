package metric

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
)

// Histogram is an online frequency structure over integer bucket boundaries.
// buckets is strictly increasing and len(buckets) == len(counts).
type Histogram struct {
	buckets []int64
	counts  []int64
}

// NewHistogram returns a histogram pre-seeded with the given boundaries and zero counts.
// Boundaries are sorted and de-duplicated.
func NewHistogram(buckets ...int64) *Histogram {
	b := slices.Clone(buckets)
	slices.Sort(b)
	b = slices.Compact(b)
	return &Histogram{buckets: b, counts: make([]int64, len(b))}
}

// NewHistogramWithCounts builds a histogram from parallel boundary and count slices.
func NewHistogramWithCounts(buckets, counts []int64) (*Histogram, error) {
	if len(buckets) != len(counts) {
		return nil, fmt.Errorf("buckets and counts must be the same length (%d != %d)", len(buckets), len(counts))
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			return nil, fmt.Errorf("buckets must be strictly increasing at index %d", i)
		}
	}
	for i, c := range counts {
		if c < 0 {
			return nil, fmt.Errorf("count at index %d is negative", i)
		}
	}
	return &Histogram{buckets: slices.Clone(buckets), counts: slices.Clone(counts)}, nil
}

// Buckets returns a copy of the bucket boundaries.
func (h *Histogram) Buckets() []int64 { return slices.Clone(h.buckets) }

// Counts returns a copy of the bucket counts.
func (h *Histogram) Counts() []int64 { return slices.Clone(h.counts) }

// Len returns the number of buckets.
func (h *Histogram) Len() int { return len(h.buckets) }

// Clone returns a deep copy.
func (h *Histogram) Clone() *Histogram {
	return &Histogram{buckets: slices.Clone(h.buckets), counts: slices.Clone(h.counts)}
}

// Observe records a single sample, growing buckets as needed.
func (h *Histogram) Observe(value int64) {
	// growth keeps every value in range, so Insert cannot fail here
	_ = h.Insert(value, 1, true)
}

// Insert adds weight to the bucket holding value.
//
// Values above the largest boundary either grow the histogram with unit-spaced
// buckets up to value (grow == true) or are dropped. An empty histogram grows
// from min(0, value).
func (h *Histogram) Insert(value, weight int64, grow bool) error {
	n := len(h.buckets)
	if n == 0 || value > h.buckets[n-1] {
		if !grow {
			return nil
		}
		start := min(0, value)
		if n > 0 {
			start = h.buckets[n-1] + 1
		}
		for b := start; b <= value; b++ {
			h.buckets = append(h.buckets, b)
			h.counts = append(h.counts, 0)
		}
		h.counts[len(h.counts)-1] += weight
		return nil
	}

	idx := sort.Search(n, func(i int) bool { return h.buckets[i] >= value })
	if idx >= len(h.counts) {
		return fmt.Errorf("insert %d at index %d of %d: %w", value, idx, len(h.counts), ErrIndexOutOfRange)
	}
	h.counts[idx] += weight
	return nil
}

// Total returns the sum of all counts.
func (h *Histogram) Total() int64 {
	var total int64
	for _, c := range h.counts {
		total += c
	}
	return total
}

// Mean returns the count-weighted average of the bucket boundaries.
// It returns NaN for a histogram with no observations.
func (h *Histogram) Mean() float64 {
	var weighted, total float64
	for i, b := range h.buckets {
		weighted += float64(b) * float64(h.counts[i])
		total += float64(h.counts[i])
	}
	if total == 0 {
		return math.NaN()
	}
	return weighted / total
}

// Quantile returns the first boundary at which the running count reaches
// p*Total(). There is no interpolation between boundaries. p is clamped to
// [0, 1] and an empty histogram yields 0.
func (h *Histogram) Quantile(p float64) int64 {
	if len(h.buckets) == 0 {
		return 0
	}
	p = math.Max(0, math.Min(1, p))
	target := float64(h.Total()) * p
	var running int64
	for i, c := range h.counts {
		running += c
		if float64(running) >= target {
			return h.buckets[i]
		}
	}
	return h.buckets[len(h.buckets)-1]
}

// MergeHistograms zips two histograms into a new one holding the union of
// their boundaries. Counts at shared boundaries are summed.
func MergeHistograms(a, b *Histogram) *Histogram {
	out := &Histogram{
		buckets: make([]int64, 0, len(a.buckets)+len(b.buckets)),
		counts:  make([]int64, 0, len(a.buckets)+len(b.buckets)),
	}
	i, j := 0, 0
	for i < len(a.buckets) || j < len(b.buckets) {
		switch {
		case j >= len(b.buckets) || (i < len(a.buckets) && a.buckets[i] < b.buckets[j]):
			out.buckets = append(out.buckets, a.buckets[i])
			out.counts = append(out.counts, a.counts[i])
			i++
		case i >= len(a.buckets) || b.buckets[j] < a.buckets[i]:
			out.buckets = append(out.buckets, b.buckets[j])
			out.counts = append(out.counts, b.counts[j])
			j++
		default:
			out.buckets = append(out.buckets, a.buckets[i])
			out.counts = append(out.counts, a.counts[i]+b.counts[j])
			i++
			j++
		}
	}
	return out
}

// HistogramFromSamples builds a histogram from raw samples. Without explicit
// buckets the distinct sample values are used. Each sample is assigned to the
// first bucket >= it; samples above the last bucket are dropped.
func HistogramFromSamples(values []int64, buckets []int64) *Histogram {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	if buckets == nil {
		buckets = slices.Compact(slices.Clone(sorted))
	}
	h := NewHistogram(buckets...)
	idx := 0
	for _, v := range sorted {
		for idx < len(h.buckets) && h.buckets[idx] < v {
			idx++
		}
		if idx == len(h.buckets) {
			break
		}
		h.counts[idx]++
	}
	return h
}

type histogramJSON struct {
	Buckets []int64 `json:"buckets"`
	Counts  []int64 `json:"counts"`
}

// MarshalJSON encodes the histogram as {"buckets": [...], "counts": [...]}.
func (h *Histogram) MarshalJSON() ([]byte, error) {
	return json.Marshal(histogramJSON{Buckets: nonNil(h.buckets), Counts: nonNil(h.counts)})
}

// UnmarshalJSON decodes and validates the {"buckets", "counts"} form.
func (h *Histogram) UnmarshalJSON(data []byte) error {
	var raw histogramJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := NewHistogramWithCounts(raw.Buckets, raw.Counts)
	if err != nil {
		return err
	}
	*h = *decoded
	return nil
}

func nonNil(s []int64) []int64 {
	if s == nil {
		return []int64{}
	}
	return s
}
