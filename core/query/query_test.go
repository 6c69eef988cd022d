package query

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/treemetrics/core/metric"
	"github.com/huangsam/treemetrics/schema"
)

const pySource = `# TODO: split this module
def f(a):
    x = a + 1
    if x:
        return x
    print(a.b)
`

func parsePython(t *testing.T, src string) *sitter.Node {
	t.Helper()
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	tree, err := p.ParseCtx(context.Background(), nil, []byte(src))
	require.NoError(t, err)
	return tree.RootNode()
}

func match(t *testing.T, q Query, src string) metric.Map {
	t.Helper()
	m, err := q.Bind(python.GetLanguage())
	require.NoError(t, err)
	out, err := m.Match(parsePython(t, src), []byte(src))
	require.NoError(t, err)
	return out
}

func TestScheme(t *testing.T) {
	out := match(t, Scheme("function_defs", "(function_definition) @default"), pySource)
	assert.Equal(t, metric.Map{"function_defs": metric.Count(1)}, out)

	out = match(t, Scheme("statements", `[(expression_statement) (return_statement) (if_statement)] @default`), pySource)
	assert.Equal(t, metric.Map{"statements": metric.Count(4)}, out)
}

func TestSchemeFilters(t *testing.T) {
	q := Scheme("calls", "(call) @default",
		Where(func(m *Match) Verdict { return Keep }),
		Named("print", func(m *Match) Verdict {
			return KeepIf(m.Node().ChildByFieldName("function").Content(m.Source) == "print")
		}),
		Named("skipped", func(*Match) Verdict { return Skip }),
	)
	out := match(t, q, "print(1)\nlen(x)\n")
	assert.Equal(t, metric.Map{"calls": metric.Count(2), "calls_print": metric.Count(1)}, out)
}

func TestSchemeExtra(t *testing.T) {
	t.Run("counts match without default key", func(t *testing.T) {
		q := Scheme("calls", "(call) @default", Where(func(m *Match) Verdict {
			return Extra(metric.Map{"args": metric.Count(2)})
		}))
		out := match(t, q, "f(1, 2)\n")
		assert.Equal(t, metric.Map{"calls": metric.Count(1), "calls_args": metric.Count(2)}, out)
	})

	t.Run("default key replaces the match count", func(t *testing.T) {
		q := Scheme("calls", "(call) @default", Where(func(m *Match) Verdict {
			return Extra(metric.Map{"": metric.Count(5)})
		}))
		out := match(t, q, "f()\ng()\n")
		assert.Equal(t, metric.Map{"calls": metric.Count(10)}, out)
	})

	t.Run("incompatible extra fails", func(t *testing.T) {
		q := Scheme("calls", "(call) @default", Where(func(m *Match) Verdict {
			return Extra(metric.Map{"": metric.Label(m.Text())})
		}))
		b, err := q.Bind(python.GetLanguage())
		require.NoError(t, err)
		src := "f()\ng()\n"
		_, err = b.Match(parsePython(t, src), []byte(src))
		assert.ErrorIs(t, err, metric.ErrIncompatibleKinds)
	})
}

func TestSchemePredicates(t *testing.T) {
	q := Scheme("prints", `((call function: (identifier) @fn) @default (#eq? @fn "print"))`)
	out := match(t, q, "print(1)\nlen(x)\nprint(2)\n")
	assert.Equal(t, metric.Count(2), out["prints"])
}

func TestSchemeCompileError(t *testing.T) {
	_, err := Scheme("broken", "(call\n  (identifier) @x").Bind(python.GetLanguage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"broken"`)

	_, err = Scheme("unknown", "(no_such_node) @x").Bind(python.GetLanguage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestNodeType(t *testing.T) {
	out := match(t, NodeType("ERROR", "ERROR"), "x = = = 1\nfoo(((\n")
	assert.Equal(t, metric.Count(2), out["ERROR"])

	// recovery by a MISSING token leaves no ERROR node
	out = match(t, NodeType("ERROR", "ERROR"), "def f(:\n")
	assert.Equal(t, metric.Count(0), out["ERROR"])

	out = match(t, NodeType("defs", "function_definition", "class_definition"), "class A:\n    def f(self): pass\n")
	assert.Equal(t, metric.Count(2), out["defs"])
}

func TestEachNodeType(t *testing.T) {
	out := match(t, EachNodeType(), "x = 1\n")
	assert.Equal(t, metric.Count(1), out["module"])
	assert.Equal(t, metric.Count(1), out["assignment"])
	assert.Equal(t, metric.Count(1), out["integer"])
}

func TestCombined(t *testing.T) {
	q := Combined(
		Scheme("expressions", "(call) @default"),
		Scheme("expressions", "(binary_operator) @default"),
		Lines(),
	)
	b, err := q.Bind(python.GetLanguage())
	require.NoError(t, err)
	assert.Equal(t, []string{"expressions", "lines"}, b.Metrics())

	src := "f(1 + 2)\n"
	out, err := b.Match(parsePython(t, src), []byte(src))
	require.NoError(t, err)
	assert.Equal(t, metric.Count(2), out["expressions"])
	assert.Equal(t, metric.Count(2), out["lines"])

	single := Scheme("x", "(call) @default")
	assert.Same(t, single, Combined(single))
}

func TestStatics(t *testing.T) {
	out := match(t, Combined(LanguageLabel("python"), IdentifierLengths(), TodoComments()), pySource)
	assert.Equal(t, metric.Label("python"), out["language"])
	assert.Equal(t, metric.Messages{"# TODO: split this module"}, out["todo_comments"])

	h, ok := out["identifier_len"].(*metric.Histogram)
	require.True(t, ok)
	// f a x a x x print a b
	assert.Equal(t, int64(9), h.Total())
	assert.Equal(t, int64(5), h.Buckets()[h.Len()-1])

	empty := match(t, Combined(IdentifierLengths(), TodoComments()), "1\n")
	assert.Empty(t, empty)
}

func TestFilterHelpers(t *testing.T) {
	root := parsePython(t, "a.m()\nclass A:\n    def f(self):\n        pass\n")

	var attr, pass *sitter.Node
	Walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "attribute":
			attr = n
		case "pass_statement":
			pass = n
		}
	})
	require.NotNil(t, attr)
	require.NotNil(t, pass)

	assert.True(t, IsCallee(attr, "call"))
	assert.True(t, InCallTarget(attr, "call"))
	assert.True(t, HasAncestor(pass, "class_definition"))
	assert.False(t, HasAncestor(attr, "class_definition"))
	assert.True(t, ParentTypes(pass, "block", "function_definition"))
	assert.False(t, ParentTypes(pass, "block", "class_definition"))
	assert.True(t, SameNode(attr, attr))
	assert.False(t, SameNode(attr, pass))

	keep := FilterLiterals(&Match{Captures: []Capture{{Node: attr}}, Source: []byte("a.m()")})
	assert.Equal(t, Keep, keep)
}

func TestFilterLiterals(t *testing.T) {
	src := "x = [0, 1, 42, 'hi', '', True]\n"
	out := match(t, Scheme("literals", "[(integer) (string) (true)] @default", Where(FilterLiterals)), src)
	assert.Equal(t, metric.Count(2), out["literals"])
}

func TestComposeFile(t *testing.T) {
	results := []Result{
		{Query: "statements", Metrics: metric.Map{"statements": metric.Count(3), "zero": metric.Count(0)}},
		{Query: "function_defs", Metrics: metric.Map{"function_defs": metric.Count(1), "todo": metric.Messages{}}},
	}
	out, diags := ComposeFile("a.py", results, 10)
	assert.Equal(t, metric.Map{"statements": metric.Count(3), "function_defs": metric.Count(1), "todo": metric.Messages{}}, out)
	assert.Empty(t, diags)

	t.Run("duplicate keeps later value", func(t *testing.T) {
		out, diags := ComposeFile("a.py", []Result{
			{Query: "a", Metrics: metric.Map{"x": metric.Count(2)}},
			{Query: "b", Metrics: metric.Map{"x": metric.Count(5)}},
		}, 10)
		assert.Equal(t, metric.Count(5), out["x"])
		require.Len(t, diags, 1)
		assert.Equal(t, schema.DuplicateMetricKey, diags[0].Kind)
		assert.Equal(t, "x", diags[0].Metric)
		assert.Equal(t, "a.py", diags[0].File)
	})

	t.Run("zero does not count as duplicate", func(t *testing.T) {
		_, diags := ComposeFile("a.py", []Result{
			{Query: "a", Metrics: metric.Map{"x": metric.Count(0)}},
			{Query: "b", Metrics: metric.Map{"x": metric.Count(5)}},
		}, 10)
		assert.Empty(t, diags)
	})

	t.Run("high error ratio", func(t *testing.T) {
		out, diags := ComposeFile("bad.py", []Result{{Query: "ERROR", Metrics: metric.Map{"ERROR": metric.Count(4)}}}, 3)
		assert.Equal(t, metric.Count(4), out["ERROR"])
		require.Len(t, diags, 1)
		assert.Equal(t, schema.HighErrorRatio, diags[0].Kind)

		_, diags = ComposeFile("ok.py", []Result{{Query: "ERROR", Metrics: metric.Map{"ERROR": metric.Count(3)}}}, 3)
		assert.Empty(t, diags)
	})
}

func TestLineCount(t *testing.T) {
	assert.Equal(t, 1, LineCount(nil))
	assert.Equal(t, 2, LineCount([]byte("a\n")))
	assert.Equal(t, 3, LineCount([]byte("a\nb\nc")))
}
