package analyze

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// Rule is an optional JavaScript predicate over the research text, for
// deployments whose alerting condition outgrows a flat term list. The
// script sees the flattened text as `text` and the configured terms as
// `terms`; its final expression value is the verdict.
type Rule struct {
	program *goja.Program
}

// CompileRule compiles the predicate source once, up front, so a broken
// rule fails at configuration time rather than mid-workflow.
func CompileRule(source string) (*Rule, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("rule source is empty")
	}
	program, err := goja.Compile("risk_rule.js", source, false)
	if err != nil {
		return nil, fmt.Errorf("compile risk rule: %w", err)
	}
	return &Rule{program: program}, nil
}

// Evaluate runs the predicate. A fresh VM per call keeps rules stateless
// between evaluations.
func (r *Rule) Evaluate(text string, terms []string) (bool, error) {
	vm := goja.New()
	vm.SetMaxCallStackSize(256)
	if err := vm.Set("text", text); err != nil {
		return false, err
	}
	if err := vm.Set("terms", terms); err != nil {
		return false, err
	}

	value, err := vm.RunProgram(r.program)
	if err != nil {
		return false, fmt.Errorf("evaluate risk rule: %w", err)
	}
	return value.ToBoolean(), nil
}
