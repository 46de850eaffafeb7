package selector

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/targetkit/targetkit/core/broker"
	"github.com/targetkit/targetkit/core/keyword"
)

// ErrInvalidSpec is returned when a selection expression cannot be
// compiled or evaluated. It carries the offending expression text.
var ErrInvalidSpec = errors.New("invalid selection expression")

// notDisabledClause excludes administratively disabled targets. The
// disabled attribute is free-form text; absence (nil) and empty string
// both mean enabled.
const notDisabledClause = `(disabled ?? "") == ""`

type clause struct {
	text    string
	program *vm.Program
}

// Spec is a compiled selection specification: the conjunction of its
// clauses over a target's keyword namespace.
type Spec struct {
	clauses []clause
}

// Compile builds a Spec from user expressions. Multiple expressions are
// OR-ed together; with none given, everything matches. Unless
// includeDisabled is set, a not-disabled clause is AND-ed in.
func Compile(exprs []string, includeDisabled bool) (*Spec, error) {
	s := &Spec{}
	if !includeDisabled {
		if err := s.add(notDisabledClause); err != nil {
			return nil, err
		}
	}
	if len(exprs) > 0 {
		joined := "(" + strings.Join(exprs, ") or (") + ")"
		if err := s.add(joined); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Spec) add(text string) error {
	program, err := expr.Compile(text)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSpec, text, err)
	}
	s.clauses = append(s.clauses, clause{text: text, program: program})
	return nil
}

// Match reports whether the target satisfies the spec. Targets with
// sub-devices match if any sub-device keyword variant does.
func (s *Spec) Match(t *broker.Target) (bool, error) {
	base := t.Keywords
	if base == nil {
		base = keyword.Namespace(t)
	}
	bsps := t.BSPs()

	kws := maps.Clone(base)
	kws["bsp_count"] = len(bsps)

	if len(bsps) == 0 {
		return s.eval(kws)
	}
	for _, name := range slices.Sorted(maps.Keys(bsps)) {
		ok, err := s.eval(keyword.WithBSP(kws, name, bsps[name]))
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *Spec) eval(kws map[string]any) (bool, error) {
	for _, cl := range s.clauses {
		out, err := expr.Run(cl.program, kws)
		if err != nil {
			return false, fmt.Errorf("%w: %q: %v", ErrInvalidSpec, cl.text, err)
		}
		ok, isBool := out.(bool)
		if !isBool {
			return false, fmt.Errorf("%w: %q: evaluates to %T, want bool", ErrInvalidSpec, cl.text, out)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Select returns the targets matching the spec, preserving the input
// order. Evaluation errors are fatal to the whole selection.
func Select(targets []*broker.Target, spec *Spec) ([]*broker.Target, error) {
	selected := make([]*broker.Target, 0, len(targets))
	for _, t := range targets {
		ok, err := spec.Match(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.FullID, err)
		}
		if ok {
			selected = append(selected, t)
		}
	}
	return selected, nil
}
