package broker

// Target describes one remotely managed hardware target as reported by
// its broker. Attrs holds the raw decoded JSON metadata and is treated
// as read-only by every consumer; re-fetching a target replaces the
// whole descriptor instead of mutating it.
type Target struct {
	// ID is the broker-local identifier.
	ID string
	// Aka is the alias of the owning broker session.
	Aka string
	// FullID is Aka + "/" + ID, globally unique across all brokers
	// registered in one cache.
	FullID string
	// Attrs is the target's attribute tree as returned by the broker.
	Attrs map[string]any
	// Keywords is the flattened keyword namespace derived from Attrs,
	// populated once per cache refresh. Nil until then.
	Keywords map[string]any
}

func (t *Target) String() string { return t.FullID }

// Type returns the target's type attribute, "n/a" when absent.
func (t *Target) Type() string {
	if s, ok := t.Attrs["type"].(string); ok && s != "" {
		return s
	}
	return "n/a"
}

// Owner returns the current owner, empty when the target is free.
func (t *Target) Owner() string {
	s, _ := t.Attrs["owner"].(string)
	return s
}

// Powered reports whether the target is powered on. The broker only
// includes the attribute on powered targets.
func (t *Target) Powered() bool {
	_, ok := t.Attrs["powered"]
	return ok
}

// Disabled reports whether the target is administratively disabled.
// The attribute is a free-form text; any non-nil value disables.
func (t *Target) Disabled() bool {
	v, ok := t.Attrs["disabled"]
	return ok && v != nil
}

// BSPs returns the target's sub-device map, keyed by sub-device name.
// Entries whose value is not an attribute map are skipped.
func (t *Target) BSPs() map[string]map[string]any {
	raw, ok := t.Attrs["bsps"].(map[string]any)
	if !ok {
		return nil
	}
	bsps := make(map[string]map[string]any, len(raw))
	for name, v := range raw {
		if attrs, ok := v.(map[string]any); ok {
			bsps[name] = attrs
		}
	}
	return bsps
}
