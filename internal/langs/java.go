package langs

import (
	"github.com/smacker/go-tree-sitter/java"

	"github.com/huangsam/treemetrics/core/query"
)

// Java is the java language with its catalogue.
func Java() *Language {
	return &Language{
		Name:       "java",
		Aliases:    []string{"Java"},
		Extensions: []string{".java"},
		Grammar:    java.GetLanguage,
		Catalogue:  javaCatalogue,
	}
}

func javaCatalogue() []Standard {
	return append(baseline("java", []string{"identifier", "type_identifier"}, []string{"line_comment", "block_comment", "comment"}),
		Standard{"statements", query.SchemeTypes("statements", []string{
			// imports and definitions not included on purpose
			"expression_statement",
			"if_statement",
			"while_statement",
			"for_statement",
			"enhanced_for_statement",
			"do_statement",
			"try_statement",
			"try_with_resources_statement",
			"return_statement",
			"throw_statement",
			"break_statement",
			"continue_statement",
			"yield_statement",
			"switch_expression",
			"synchronized_statement",
			"assert_statement",
			"local_variable_declaration",
		})},
		Standard{"conditions", query.SchemeTypes("conditions", []string{"if_statement", "ternary_expression", "switch_label"})},
		Standard{"loops", query.SchemeTypes("loops", []string{
			"while_statement", "for_statement", "enhanced_for_statement", "do_statement",
		})},
		Standard{"expressions", query.SchemeTypes("expressions", []string{
			"binary_expression",
			"unary_expression",
			"update_expression",
			"ternary_expression",
			"assignment_expression",
			"method_invocation",
			"object_creation_expression",
			"field_access",
			"array_access",
			"array_creation_expression",
			"lambda_expression",
			"method_reference",
			"cast_expression",
			"instanceof_expression",
			"switch_expression",
		})},
		scheme("binary_operators", "(binary_expression) @default"),
		scheme("invocations", "[(method_invocation) (object_creation_expression)] @default"),
		scheme("variable_assignments", `[
			(assignment_expression left: (identifier))
			(variable_declarator value: (_))
		] @default`, query.Where(func(m *query.Match) query.Verdict {
			v := m.Node().ChildByFieldName("value")
			return query.KeepIf(v == nil || v.Type() != "lambda_expression")
		})),
		scheme("field_assignments", "(assignment_expression left: (field_access)) @default"),
		scheme("field_accesses", "(field_access) @default"),
		scheme("chained_calls", "(method_invocation object: [(method_invocation) (object_creation_expression)]) @default"),
		Standard{"class_defs", query.SchemeTypes("class_defs", []string{
			"class_declaration", "record_declaration", "interface_declaration", "enum_declaration",
		})},
		scheme("function_defs", "[(method_declaration) (constructor_declaration)] @default"),
		scheme("lambda_functions", "(lambda_expression) @default"),
		Standard{"decorators", query.SchemeTypes("decorators", []string{"annotation", "marker_annotation"})},
		scheme("try_catches", "(catch_clause) @default"),
		Standard{"literals", query.SchemeTypes("literals", []string{
			"decimal_integer_literal",
			"hex_integer_literal",
			"decimal_floating_point_literal",
			"character_literal",
			"string_literal",
		}, query.Where(query.FilterLiterals))},
		scheme("indexing", "(array_access) @default"),
	)
}
