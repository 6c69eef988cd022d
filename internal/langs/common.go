package langs

import "github.com/huangsam/treemetrics/core/query"

// baseline are the entries every catalogue starts with.
func baseline(name string, identifiers, comments []string) []Standard {
	return []Standard{
		{"ERROR", query.NodeType(query.ErrorMetric, "ERROR")},
		{"lines", query.Lines()},
		{"language", query.LanguageLabel(name)},
		{"identifier_len", query.IdentifierLengths(identifiers...)},
		{"todo_comments", query.TodoComments(comments...)},
	}
}

// scheme is a catalogue entry whose metric name equals its query name.
func scheme(name, pattern string, filters ...query.NamedFilter) Standard {
	return Standard{Name: name, Query: query.Scheme(name, pattern, filters...)}
}

// callTarget skips the callee of a call so that a.m() counts once.
func callTarget(nodeTypes []string, callTypes ...string) query.Filter {
	return func(m *query.Match) query.Verdict {
		n := m.Node()
		for _, t := range nodeTypes {
			if n.Type() == t && query.IsCallee(n, callTypes...) {
				return query.Skip
			}
		}
		return query.Keep
	}
}

// chained keeps calls made on the result of another call.
func chained(callTypes ...string) query.Filter {
	return func(m *query.Match) query.Verdict {
		return query.KeepIf(query.InCallTarget(m.Node(), callTypes...))
	}
}

// nested keeps nodes enclosed by one of the given function types.
func nested(functionTypes ...string) query.Filter {
	return func(m *query.Match) query.Verdict {
		return query.KeepIf(query.HasAncestor(m.Node(), functionTypes...))
	}
}
