package metric

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hist(t *testing.T, buckets, counts []int64) *Histogram {
	t.Helper()
	h, err := NewHistogramWithCounts(buckets, counts)
	require.NoError(t, err)
	return h
}

func TestCombine(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want Value
	}{
		{"counts add", Count(2), Count(3), Count(5)},
		{"nil left", nil, Count(3), Count(3)},
		{"nil right", Label("python"), nil, Label("python")},
		{"messages concat", Messages{"a"}, Messages{"b", "c"}, Messages{"a", "b", "c"}},
		{"empty messages left", Messages{}, Messages{"x"}, Messages{"x"}},
		{"empty messages right", Messages{"x"}, Messages{}, Messages{"x"}},
		{"equal labels", Label("go"), Label("go"), Label("go")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Combine(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("both nil", func(t *testing.T) {
		got, err := Combine(nil, nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestCombineIncompatible(t *testing.T) {
	h := hist(t, []int64{1}, []int64{1})
	cases := []struct {
		name string
		a, b Value
	}{
		{"count and messages", Count(1), Messages{"x"}},
		{"count two and histogram", Count(2), h},
		{"histogram and count zero", h, Count(0)},
		{"label and count", Label("go"), Count(1)},
		{"different labels", Label("go"), Label("python")},
		{"messages and histogram", Messages{}, h},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Combine(tc.a, tc.b)
			assert.ErrorIs(t, err, ErrIncompatibleKinds)
		})
	}
}

func TestCombineCountOneIntoHistogram(t *testing.T) {
	h := hist(t, []int64{1, 2}, []int64{0, 3})

	left, err := Combine(h, Count(1))
	require.NoError(t, err)
	right, err := Combine(Count(1), h)
	require.NoError(t, err)

	for _, got := range []Value{left, right} {
		gh, ok := got.(*Histogram)
		require.True(t, ok)
		assert.Equal(t, []int64{1, 2}, gh.Buckets())
		assert.Equal(t, []int64{1, 3}, gh.Counts())
	}
	assert.Equal(t, []int64{0, 3}, h.Counts(), "operand must not be mutated")

	t.Run("adds bucket one when missing", func(t *testing.T) {
		got, err := Combine(hist(t, []int64{4}, []int64{2}), Count(1))
		require.NoError(t, err)
		gh := got.(*Histogram)
		assert.Equal(t, []int64{1, 4}, gh.Buckets())
		assert.Equal(t, int64(3), gh.Total())
	})
}

func TestCombineAlgebraicLaws(t *testing.T) {
	values := []Value{Count(1), Count(4), Count(7)}
	for _, a := range values {
		for _, b := range values {
			ab, err := Combine(a, b)
			require.NoError(t, err)
			ba, err := Combine(b, a)
			require.NoError(t, err)
			assert.Equal(t, ab, ba)

			for _, c := range values {
				left, _ := Combine(a, b)
				left, _ = Combine(left, c)
				right, _ := Combine(b, c)
				right, _ = Combine(a, right)
				assert.Equal(t, left, right)
			}
		}
	}

	h1 := hist(t, []int64{1, 3}, []int64{1, 1})
	h2 := hist(t, []int64{2, 3}, []int64{5, 1})
	h3 := hist(t, []int64{0, 9}, []int64{1, 2})
	ab, _ := Combine(h1, h2)
	ba, _ := Combine(h2, h1)
	assert.Equal(t, ab.(*Histogram).Counts(), ba.(*Histogram).Counts())

	left, _ := Combine(ab, h3)
	bc, _ := Combine(h2, h3)
	right, _ := Combine(h1, bc)
	assert.Equal(t, left.(*Histogram).Buckets(), right.(*Histogram).Buckets())
	assert.Equal(t, left.(*Histogram).Counts(), right.(*Histogram).Counts())
}

func TestConcatName(t *testing.T) {
	assert.Equal(t, "calls", ConcatName("", "calls"))
	assert.Equal(t, "calls", ConcatName("calls", ""))
	assert.Equal(t, "calls", ConcatName("calls", DefaultName))
	assert.Equal(t, "calls_print", ConcatName("calls", "print"))
}

func TestMergeInto(t *testing.T) {
	dst := Map{"statements": Count(3), "language": Label("python")}
	src := Map{"statements": Count(2), "todo": Messages{"fix"}, "language": Label("python")}

	require.NoError(t, MergeInto(dst, src, ""))
	assert.Equal(t, Count(5), dst["statements"])
	assert.Equal(t, Messages{"fix"}, dst["todo"])
	assert.Equal(t, Label("python"), dst["language"])

	t.Run("prefix", func(t *testing.T) {
		out := Map{}
		require.NoError(t, MergeInto(out, Map{"": Count(1), "print": Count(2)}, "calls"))
		assert.Equal(t, Map{"calls": Count(1), "calls_print": Count(2)}, out)
	})

	t.Run("incompatible", func(t *testing.T) {
		err := MergeInto(Map{"x": Count(1)}, Map{"x": Messages{"m"}}, "")
		assert.ErrorIs(t, err, ErrIncompatibleKinds)
		assert.Contains(t, err.Error(), `"x"`)
	})
}

func TestWithPrefix(t *testing.T) {
	out, err := WithPrefix("calls", Map{"default": Count(2), "": Count(3), "open": Count(1)})
	require.NoError(t, err)
	assert.Equal(t, Map{"calls": Count(5), "calls_open": Count(1)}, out)

	same, err := WithPrefix("", Map{"a": Count(1)})
	require.NoError(t, err)
	assert.Equal(t, Map{"a": Count(1)}, same)
}

func TestSum(t *testing.T) {
	out, err := Sum(Map{"a": Count(1)}, Map{"a": Count(2), "b": Count(1)}, nil)
	require.NoError(t, err)
	assert.Equal(t, Map{"a": Count(3), "b": Count(1)}, out)
}

func TestMapJSON(t *testing.T) {
	m := Map{
		"statements":     Count(3),
		"identifier_len": hist(t, []int64{1, 2}, []int64{4, 5}),
		"todo_comments":  Messages{"TODO: x"},
		"language":       Label("go"),
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded Map
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Count(3), decoded["statements"])
	assert.Equal(t, Messages{"TODO: x"}, decoded["todo_comments"])
	assert.Equal(t, Label("go"), decoded["language"])
	assert.Equal(t, []int64{4, 5}, decoded["identifier_len"].(*Histogram).Counts())

	assert.Error(t, json.Unmarshal([]byte(`{"x":{"kind":"bogus"}}`), &decoded))
}

func TestMapHelpers(t *testing.T) {
	m := Map{"b": Count(1), "a": hist(t, []int64{1}, []int64{1})}
	assert.Equal(t, []string{"a", "b"}, m.Names())

	c := m.Clone()
	c["a"].(*Histogram).Observe(1)
	assert.Equal(t, int64(1), m["a"].(*Histogram).Total())

	n, ok := m.Count("b")
	assert.True(t, ok)
	assert.Equal(t, int64(1), n)
	_, ok = m.Count("a")
	assert.False(t, ok)
}
