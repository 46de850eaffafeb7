// Package keyword flattens target descriptors into the keyword
// namespace that selection expressions are evaluated against.
//
// Namespace turns a descriptor's nested attribute tree into a flat
// string-keyed map: scalar leaves are copied under their dotted path
// ("bsps.x86.board"), null leaves become the empty string, and nested
// maps are additionally kept whole under their own key so the
// expression evaluator can resolve dotted references by member access.
// Two synthetic keys are always present: "target" (sanitized full id)
// and "type" ("n/a" when the broker reports none).
//
// WithBSP derives the per-sub-device variant used during selection: the
// base namespace plus "bsp" (the sub-device name) and that sub-device's
// own scalar attributes promoted to top level. Variants are computed on
// the fly by the selector and never stored in the cache.
package keyword
