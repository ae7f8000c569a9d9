package scorer

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/source"
)

// grammar describes how to count decision points for one language.
type grammar struct {
	language  func() *sitter.Language
	functions map[string]bool // node types that open a new complexity unit
	decisions map[string]bool // node types that add one independent path
}

func set(types ...string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

var cDecisions = []string{
	"if_statement", "for_statement", "while_statement", "do_statement",
	"case_statement", "conditional_expression",
}

var grammars = map[source.Language]grammar{
	source.LangPython: {
		language:  python.GetLanguage,
		functions: set("function_definition"),
		decisions: set("if_statement", "elif_clause", "for_statement", "while_statement",
			"except_clause", "conditional_expression", "case_clause"),
	},
	source.LangGo: {
		language:  golang.GetLanguage,
		functions: set("function_declaration", "method_declaration", "func_literal"),
		decisions: set("if_statement", "for_statement", "expression_case", "type_case",
			"communication_case"),
	},
	source.LangC: {
		language:  c.GetLanguage,
		functions: set("function_definition"),
		decisions: set(cDecisions...),
	},
	source.LangCPP: {
		language:  cpp.GetLanguage,
		functions: set("function_definition", "lambda_expression"),
		decisions: set(append([]string{"for_range_loop", "catch_clause"}, cDecisions...)...),
	},
	source.LangJava: {
		language:  java.GetLanguage,
		functions: set("method_declaration", "constructor_declaration", "lambda_expression"),
		decisions: set("if_statement", "for_statement", "enhanced_for_statement",
			"while_statement", "do_statement", "catch_clause", "ternary_expression", "switch_label"),
	},
}

// SupportsComplexity reports whether Complexity can score lang.
func SupportsComplexity(lang source.Language) bool {
	_, ok := grammars[lang]
	return ok
}

// Complexity returns the cyclomatic complexity of code: the number of
// independent paths through its most complex unit. Every function is a
// unit, and so is the code outside any function. The minimum is 1. The
// metric is unavailable when the language is unsupported or the code does
// not parse cleanly.
func Complexity(ctx context.Context, lang source.Language, code string) Metric[int] {
	g, ok := grammars[lang]
	if !ok {
		return Unavailable[int]()
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.language())

	content := []byte(code)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return Unavailable[int]()
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return Unavailable[int]()
	}

	w := &pathCounter{g: g, units: []int{1}}
	w.visit(root, 0)

	best := 1
	for _, u := range w.units {
		best = max(best, u)
	}
	return Available(best)
}

type pathCounter struct {
	g     grammar
	units []int
}

func (w *pathCounter) visit(n *sitter.Node, unit int) {
	switch t := n.Type(); {
	case w.g.functions[t]:
		w.units = append(w.units, 1)
		unit = len(w.units) - 1
	case w.g.decisions[t] && !isDefaultLabel(n):
		w.units[unit]++
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.visit(n.NamedChild(i), unit)
	}
}

// isDefaultLabel reports whether a case node is the default branch, which
// does not add a path.
func isDefaultLabel(n *sitter.Node) bool {
	switch n.Type() {
	case "case_statement", "switch_label":
		return n.ChildCount() > 0 && n.Child(0).Type() == "default"
	}
	return false
}
