package langs

import (
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	"github.com/huangsam/treemetrics/core/query"
)

// CSharp is the C# language with its catalogue.
func CSharp() *Language {
	return &Language{
		Name:       "csharp",
		Aliases:    []string{"cs", "c#", "C#"},
		Extensions: []string{".cs"},
		Grammar:    csharp.GetLanguage,
		Catalogue:  csharpCatalogue,
	}
}

var csharpFunctionExpressions = []string{"anonymous_method_expression", "lambda_expression"}

func hasChildType(n *sitter.Node, types ...string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if slices.Contains(types, n.Child(i).Type()) {
			return true
		}
	}
	return false
}

// csharpInitializer returns the value bound by a variable declarator, which
// older grammars wrap in an equals_value_clause.
func csharpInitializer(n *sitter.Node) (*sitter.Node, bool) {
	seenEquals := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch {
		case c.Type() == "equals_value_clause":
			if c.NamedChildCount() > 0 {
				return c.NamedChild(0), true
			}
			return nil, true
		case c.Type() == "=":
			seenEquals = true
		case seenEquals && c.IsNamed():
			return c, true
		}
	}
	return nil, seenEquals
}

func csharpCatalogue() []Standard {
	calls := []string{"invocation_expression"}
	return append(baseline("csharp", nil, nil),
		Standard{"statements", query.SchemeTypes("statements", []string{
			// imports and definitions not included on purpose
			"expression_statement",
			"if_statement",
			"switch_statement",
			"while_statement",
			"do_statement",
			"for_statement",
			"for_each_statement",
			"foreach_statement",
			"yield_statement",
			"try_statement",
			"using_statement",
			"lock_statement",
			"fixed_statement",
			"break_statement",
			"continue_statement",
			"goto_statement",
			"return_statement",
			"throw_statement",
			"local_declaration_statement",
		})},
		Standard{"conditions", query.SchemeTypes("conditions", []string{
			"if_statement",
			"conditional_expression",
			"switch_section",
			"switch_expression_arm",
			"catch_filter_clause",
		}, query.Where(func(m *query.Match) query.Verdict {
			n := m.Node()
			if n.Type() == "switch_section" {
				// default: is not a condition
				return query.KeepIf(strings.HasPrefix(strings.TrimSpace(n.Content(m.Source)), "case"))
			}
			return query.Keep
		}))},
		Standard{"loops", query.SchemeTypes("loops", []string{
			"while_statement", "do_statement", "for_statement", "for_each_statement", "foreach_statement",
		})},
		Standard{"expressions", query.SchemeTypes("expressions", []string{
			"binary_expression",
			"prefix_unary_expression",
			"postfix_unary_expression",
			"conditional_expression",
			"switch_expression",
			"throw_expression",
			"tuple_expression",
			"assignment_expression",
			"invocation_expression",
			"member_access_expression",
			"conditional_access_expression",
			"await_expression",
			"anonymous_method_expression",
			"lambda_expression",
			"element_access_expression",
			"object_creation_expression",
			"implicit_object_creation_expression",
			"array_creation_expression",
			"implicit_array_creation_expression",
			"implicit_stack_alloc_array_creation_expression",
			"stack_alloc_array_creation_expression",
			"anonymous_object_creation_expression",
			"with_expression",
			"ref_expression",
			"range_expression",
			// query clauses read like expressions
			"from_clause",
			"let_clause",
			"order_by_clause",
			"join_into_clause",
			"join_clause",
			"where_clause",
			"group_clause",
			"query_continuation",
			// patterns are used like expressions
			"or_pattern",
			"and_pattern",
			"subpattern",
			"is_pattern_expression",
			"is_expression",
			"make_ref_expression",
			"ref_type_expression",
			"ref_value_expression",
			"interpolation",
		}, query.Where(callTarget([]string{"member_access_expression", "conditional_access_expression"}, calls...)))},
		scheme("binary_operators", "(binary_expression) @default"),
		Standard{"invocations", query.SchemeTypes("invocations", []string{
			"invocation_expression", "object_creation_expression", "implicit_object_creation_expression",
		})},
		Standard{"variable_assignments", query.SchemeTypes("variable_assignments", []string{
			"assignment_expression", "variable_declarator", "declaration_pattern",
		}, query.Where(func(m *query.Match) query.Verdict {
			n := m.Node()
			switch n.Type() {
			case "assignment_expression":
				left := n.ChildByFieldName("left")
				return query.KeepIf(left != nil && left.Type() == "identifier")
			case "variable_declarator":
				value, ok := csharpInitializer(n)
				// function definitions are not assignments
				return query.KeepIf(ok && (value == nil || !slices.Contains(csharpFunctionExpressions, value.Type())))
			}
			return query.Keep
		}))},
		Standard{"field_assignments", query.SchemeTypes("field_assignments", []string{"assignment_expression"},
			query.Where(func(m *query.Match) query.Verdict {
				n := m.Node()
				left := n.ChildByFieldName("left")
				if left == nil {
					return query.Skip
				}
				switch left.Type() {
				case "member_access_expression", "conditional_access_expression":
					return query.Keep
				case "identifier":
					p := n.Parent()
					return query.KeepIf(p != nil && p.Type() == "initializer_expression")
				}
				return query.Skip
			}))},
		Standard{"field_accesses", query.SchemeTypes("field_accesses", []string{
			"member_access_expression", "conditional_access_expression",
		}, query.Where(callTarget([]string{"member_access_expression", "conditional_access_expression"}, calls...)))},
		Standard{"chained_calls", query.SchemeTypes("chained_calls", []string{
			"invocation_expression", "object_creation_expression",
		}, query.Where(chained(calls...)))},
		Standard{"class_defs", query.SchemeTypes("class_defs", []string{
			"class_declaration", "record_declaration", "struct_declaration", "record_struct_declaration",
		})},
		Standard{"function_defs", query.SchemeTypes("function_defs", []string{
			"local_function_statement",
			"constructor_declaration",
			"method_declaration",
			"operator_declaration",
			"conversion_operator_declaration",
			"destructor_declaration",
			"accessor_declaration",
			"property_declaration",
			"indexer_declaration",
		}, query.Where(func(m *query.Match) query.Verdict {
			n := m.Node()
			switch n.Type() {
			case "accessor_declaration":
				return query.KeepIf(n.ChildByFieldName("body") != nil || hasChildType(n, "block", "arrow_expression_clause"))
			case "property_declaration", "indexer_declaration":
				return query.KeepIf(hasChildType(n, "arrow_expression_clause"))
			}
			return query.Keep
		}))},
		Standard{"lambda_functions", query.SchemeTypes("lambda_functions", csharpFunctionExpressions)},
		Standard{"nested_functions", query.SchemeTypes("nested_functions", []string{"local_function_statement"},
			query.Where(func(m *query.Match) query.Verdict {
				p := m.Node().Parent()
				return query.KeepIf(p == nil || p.Type() != "global_statement")
			}))},
		scheme("decorators", "(attribute) @default"),
		// finally is cleanup, not exception handling
		scheme("try_catches", "(catch_clause) @default"),
		Standard{"literals", query.SchemeTypes("literals", []string{
			"real_literal",
			"integer_literal",
			"character_literal",
			"string_literal",
			"interpolated_string_expression",
			"verbatim_string_literal",
			"raw_string_literal",
			"size_of_expression",
			"type_of_expression",
		}, query.Where(query.FilterLiterals))},
		scheme("indexing", "(element_access_expression) @default"),
		Standard{"slicing", query.SchemeTypes("slicing", []string{"range_expression"})},
		Standard{"type_annotations", query.SchemeTypes("type_annotations", []string{
			"variable_declaration",
			"parameter",
			"property_declaration",
			"event_declaration",
			"indexer_declaration",
			"method_declaration",
			"operator_declaration",
		}, query.Where(func(m *query.Match) query.Verdict {
			n := m.Node()
			t := n.ChildByFieldName("type")
			if t == nil {
				t = n.ChildByFieldName("returns")
			}
			return query.KeepIf(t != nil && t.Type() != "implicit_type")
		}))},
	)
}
