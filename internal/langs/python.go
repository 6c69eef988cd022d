package langs

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/huangsam/treemetrics/core/query"
)

// Python is the python language with its catalogue.
func Python() *Language {
	return &Language{
		Name:       "python",
		Aliases:    []string{"py", "Python"},
		Extensions: []string{".py", ".pyi"},
		Grammar:    python.GetLanguage,
		Catalogue:  pythonCatalogue,
	}
}

// classField reports whether the matched node is a class attribute declaration.
func classField(n *sitter.Node) bool {
	return query.ParentTypes(n, "expression_statement", "block", "class_definition")
}

func pythonCatalogue() []Standard {
	return append(baseline("python", nil, nil),
		Standard{"statements", query.SchemeTypes("statements", []string{
			// imports and definitions not included on purpose
			"print_statement",
			"assert_statement",
			"expression_statement",
			"return_statement",
			"delete_statement",
			"raise_statement",
			"pass_statement",
			"break_statement",
			"continue_statement",
			"if_statement",
			"while_statement",
			"for_statement",
			"try_statement",
			"with_statement",
			"match_statement",
		}, query.Where(func(m *query.Match) query.Verdict {
			// fields are not statements
			return query.KeepIf(!query.ParentTypes(m.Node(), "block", "class_definition"))
		}))},
		Standard{"conditions", query.SchemeTypes("conditions", []string{
			"if_statement",
			"elif_clause",
			"else_clause",
			"match_statement",
			"case_clause",
			"conditional_expression",
		})},
		Standard{"loops", query.SchemeTypes("loops", []string{
			"while_statement",
			"for_statement",
			"dictionary_comprehension",
			"generator_expression",
			"list_comprehension",
		})},
		Standard{"expressions", query.Combined(
			query.SchemeTypes("expressions", []string{
				"binary_operator",
				"unary_operator",
				"assignment",
				"named_expression",
				"call",
				"attribute",
				"boolean_operator",
				"not_operator",
				"comparison_operator",
				"await",
				"lambda",
				"conditional_expression",
				"subscript",
				"slice",
				"list",
				"list_comprehension",
				"dictionary",
				"dictionary_comprehension",
				"set",
				"set_comprehension",
				"generator_expression",
				"tuple",
			}, query.Where(func(m *query.Match) query.Verdict {
				if classField(m.Node()) {
					return query.Skip
				}
				return callTarget([]string{"attribute"}, "call")(m)
			})),
			query.Scheme("expressions", "(string (interpolation) @default)"),
		)},
		scheme("binary_operators", "(binary_operator) @default"),
		scheme("invocations", "(call) @default"),
		scheme("variable_assignments", `[
			(assignment left: (identifier) right: (_))
			(named_expression name: (identifier))
		] @default`, query.Where(func(m *query.Match) query.Verdict {
			return query.KeepIf(!classField(m.Node()))
		})),
		scheme("field_assignments", "(assignment left: (attribute)) @default"),
		scheme("field_accesses", "(attribute) @default", query.Where(callTarget([]string{"attribute"}, "call"))),
		scheme("chained_calls", "(call) @default", query.Where(chained("call"))),
		scheme("class_defs", "(class_definition) @default"),
		scheme("function_defs", "(function_definition) @default"),
		scheme("lambda_functions", "(lambda) @default"),
		scheme("nested_functions", "(function_definition) @default", query.Where(nested("function_definition"))),
		scheme("decorators", "(decorator) @default"),
		// finally is cleanup, not exception handling
		scheme("try_catches", "(except_clause) @default"),
		scheme("literals", `[(float) (integer) (string)] @default`),
		scheme("indexing", "(subscript) @default"),
		scheme("slicing", "(slice) @default"),
		scheme("type_annotations", `[
			(assignment type: (_))
			(typed_parameter)
			(function_definition return_type: (_))
		] @default`),
	)
}
