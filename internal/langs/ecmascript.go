package langs

import (
	"slices"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/huangsam/treemetrics/core/query"
)

// JavaScript is the javascript language with the ECMAScript catalogue.
func JavaScript() *Language {
	return &Language{
		Name:       "javascript",
		Aliases:    []string{"js", "jsx", "JavaScript"},
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		Grammar:    javascript.GetLanguage,
		Catalogue:  func() []Standard { return ecmaCatalogue("javascript") },
	}
}

// TypeScript is the typescript language with the ECMAScript catalogue.
func TypeScript() *Language {
	return &Language{
		Name:       "typescript",
		Aliases:    []string{"ts", "TypeScript"},
		Extensions: []string{".ts", ".mts", ".cts"},
		Grammar:    typescript.GetLanguage,
		Catalogue:  func() []Standard { return ecmaCatalogue("typescript") },
	}
}

// TSX is typescript with JSX, sharing the ECMAScript catalogue.
func TSX() *Language {
	return &Language{
		Name:       "tsx",
		Aliases:    []string{"TSX"},
		Extensions: []string{".tsx"},
		Grammar:    tsx.GetLanguage,
		Catalogue:  func() []Standard { return ecmaCatalogue("tsx") },
	}
}

// Older grammars name function expressions "function".
var ecmaFunctionExpressions = []string{"function", "function_expression", "arrow_function", "generator_function"}

var ecmaFunctionScopes = []string{
	"function_declaration", "generator_function_declaration", "method_definition",
	"function", "function_expression", "generator_function", "arrow_function",
}

func isFunctionExpression(n *sitter.Node) bool {
	return n != nil && slices.Contains(ecmaFunctionExpressions, n.Type())
}

// definesFunctionOnly reports whether every declarator of a declaration
// binds a function expression, as in const f = () => {}.
func definesFunctionOnly(n *sitter.Node) bool {
	found := false
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "variable_declarator" {
			continue
		}
		if !isFunctionExpression(c.ChildByFieldName("value")) {
			return false
		}
		found = true
	}
	return found
}

func ecmaCatalogue(name string) []Standard {
	return append(baseline(name, []string{"identifier", "property_identifier", "type_identifier"}, nil),
		Standard{"statements", query.SchemeTypes("statements", []string{
			// imports and definitions not included on purpose
			"export_statement",
			"expression_statement",
			"if_statement",
			"switch_statement",
			"for_statement",
			"for_in_statement",
			"while_statement",
			"do_statement",
			"try_statement",
			"break_statement",
			"continue_statement",
			"return_statement",
			"throw_statement",
			"lexical_declaration",
			"variable_declaration",
		}, query.Where(func(m *query.Match) query.Verdict {
			n := m.Node()
			if n.Type() == "lexical_declaration" || n.Type() == "variable_declaration" {
				return query.KeepIf(!definesFunctionOnly(n))
			}
			return query.Keep
		}))},
		scheme("conditions", `
			[(if_statement) (ternary_expression) (switch_case)] @default
			(subscript_expression object: (array (_) @default))
			(subscript_expression object: (object (pair) @default))`),
		Standard{"loops", query.SchemeTypes("loops", []string{
			"while_statement", "do_statement", "for_statement", "for_in_statement",
		})},
		Standard{"expressions", query.Combined(
			query.SchemeTypes("expressions", append([]string{
				"binary_expression",
				"unary_expression",
				"ternary_expression",
				"assignment_expression",
				"augmented_assignment_expression",
				"update_expression",
				"call_expression",
				"new_expression",
				"member_expression",
				"await_expression",
				"subscript_expression",
				"array",
				"array_pattern",
				"object",
				"object_pattern",
				"spread_element",
				"rest_pattern",
				"yield_expression",
			}, ecmaFunctionExpressions...), query.Where(func(m *query.Match) query.Verdict {
				n := m.Node()
				if n.Type() == "member_expression" && query.IsCallee(n, "call_expression") {
					return query.Skip
				}
				// const a = function() {} is a definition
				if isFunctionExpression(n) && n.Parent() != nil && n.Parent().Type() == "variable_declarator" {
					return query.Skip
				}
				return query.Keep
			})),
			query.Scheme("expressions", "(template_string (template_substitution) @default)"),
		)},
		scheme("binary_operators", "(binary_expression) @default"),
		scheme("invocations", "[(call_expression) (new_expression)] @default"),
		scheme("variable_assignments", `[
			(assignment_expression left: (identifier) right: (_))
			(variable_declarator)
		] @default`, query.Where(func(m *query.Match) query.Verdict {
			n := m.Node()
			return query.KeepIf(n.Type() != "variable_declarator" || !isFunctionExpression(n.ChildByFieldName("value")))
		})),
		scheme("field_assignments", "(assignment_expression left: (member_expression)) @default"),
		scheme("field_accesses", "(member_expression) @default", query.Where(callTarget([]string{"member_expression"}, "call_expression"))),
		scheme("chained_calls", "[(call_expression) (new_expression)] @default", query.Where(chained("call_expression"))),
		Standard{"class_defs", query.SchemeTypes("class_defs", []string{"class_declaration", "class"})},
		Standard{"function_defs", query.ForLanguage(func(lang *sitter.Language) query.Query {
			return query.Scheme("function_defs", `
				(method_definition) @default
				(function_declaration) @default
				(generator_function_declaration) @default
				(variable_declarator value: `+query.Alternation(query.KnownTypes(lang, ecmaFunctionExpressions...)...)+`)`)
		})},
		Standard{"lambda_functions", query.SchemeTypes("lambda_functions", ecmaFunctionExpressions, query.Where(func(m *query.Match) query.Verdict {
			// a function assigned right away to a variable is a definition
			p := m.Node().Parent()
			return query.KeepIf(p == nil || p.Type() != "variable_declarator")
		}))},
		Standard{"nested_functions", query.ForLanguage(func(lang *sitter.Language) query.Query {
			return query.Scheme("nested_functions", `
				(function_declaration) @default
				(generator_function_declaration) @default
				(variable_declarator value: `+query.Alternation(query.KnownTypes(lang, ecmaFunctionExpressions...)...)+`)`,
				query.Where(nested(ecmaFunctionScopes...)))
		})},
		Standard{"decorators", query.SchemeTypes("decorators", []string{"decorator"})},
		// finally is cleanup, not exception handling
		scheme("try_catches", "(catch_clause) @default"),
		Standard{"literals", query.SchemeTypes("literals", []string{"number", "string", "regex"}, query.Where(query.FilterLiterals))},
		scheme("indexing", "(subscript_expression) @default"),
		Standard{"type_annotations", query.SchemeTypes("type_annotations", []string{"type_annotation"})},
	)
}
