package langs

import (
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/huangsam/treemetrics/core/query"
)

// Go is the go language with its catalogue.
func Go() *Language {
	return &Language{
		Name:       "go",
		Aliases:    []string{"golang", "Go"},
		Extensions: []string{".go"},
		Grammar:    golang.GetLanguage,
		Catalogue:  goCatalogue,
	}
}

func goCatalogue() []Standard {
	calls := []string{"call_expression"}
	return append(baseline("go", []string{"identifier", "field_identifier", "type_identifier", "package_identifier"}, nil),
		Standard{"statements", query.SchemeTypes("statements", []string{
			// imports and definitions not included on purpose
			"expression_statement",
			"send_statement",
			"inc_statement",
			"dec_statement",
			"assignment_statement",
			"short_var_declaration",
			"return_statement",
			"go_statement",
			"defer_statement",
			"if_statement",
			"for_statement",
			"expression_switch_statement",
			"type_switch_statement",
			"select_statement",
			"break_statement",
			"continue_statement",
			"goto_statement",
			"fallthrough_statement",
			"var_declaration",
			"const_declaration",
		}, query.Where(func(m *query.Match) query.Verdict {
			// package level declarations are definitions
			p := m.Node().Parent()
			return query.KeepIf(p == nil || p.Type() != "source_file")
		}))},
		Standard{"conditions", query.SchemeTypes("conditions", []string{
			"if_statement", "expression_case", "type_case", "communication_case",
		})},
		Standard{"loops", query.SchemeTypes("loops", []string{"for_statement"})},
		Standard{"expressions", query.SchemeTypes("expressions", []string{
			"binary_expression",
			"unary_expression",
			"call_expression",
			"selector_expression",
			"index_expression",
			"slice_expression",
			"type_assertion_expression",
			"type_conversion_expression",
			"composite_literal",
			"func_literal",
		}, query.Where(callTarget([]string{"selector_expression"}, calls...)))},
		scheme("binary_operators", "(binary_expression) @default"),
		scheme("invocations", "(call_expression) @default"),
		Standard{"variable_assignments", query.SchemeTypes("variable_assignments", []string{
			"short_var_declaration", "assignment_statement", "var_spec",
		}, query.Where(func(m *query.Match) query.Verdict {
			n := m.Node()
			if n.Type() != "assignment_statement" {
				return query.Keep
			}
			left := n.ChildByFieldName("left")
			return query.KeepIf(left != nil && left.NamedChildCount() > 0 && left.NamedChild(0).Type() == "identifier")
		}))},
		scheme("field_assignments", "(assignment_statement left: (expression_list (selector_expression))) @default"),
		scheme("field_accesses", "(selector_expression) @default", query.Where(callTarget([]string{"selector_expression"}, calls...))),
		scheme("chained_calls", "(call_expression) @default", query.Where(chained(calls...))),
		scheme("class_defs", "(type_spec type: [(struct_type) (interface_type)]) @default"),
		scheme("function_defs", "[(function_declaration) (method_declaration)] @default"),
		scheme("lambda_functions", "(func_literal) @default"),
		scheme("nested_functions", "(func_literal) @default", query.Where(nested("function_declaration", "method_declaration", "func_literal"))),
		Standard{"literals", query.SchemeTypes("literals", []string{
			"int_literal", "float_literal", "imaginary_literal", "rune_literal",
			"interpreted_string_literal", "raw_string_literal",
		}, query.Where(query.FilterLiterals))},
		scheme("indexing", "(index_expression) @default"),
		scheme("slicing", "(slice_expression) @default"),
	)
}
