// Package selector filters the merged target table with boolean
// selection expressions.
//
// Expressions are compiled and evaluated by the expr language engine
// against each target's flat keyword namespace; identifiers that a
// target does not define evaluate to nil, so "owner == \"me\"" is
// simply false on unowned targets rather than an error. Several
// expressions given together are OR-ed; unless disabled targets are
// explicitly requested, an exclusion clause is AND-ed in.
//
// A target with sub-devices matches when any per-sub-device keyword
// variant matches; a target without sub-devices is evaluated once
// against its base namespace.
//
// Malformed expressions fail the whole selection with ErrInvalidSpec;
// there is nothing sensible to select when the spec itself is broken.
package selector
