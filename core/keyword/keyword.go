package keyword

import (
	"maps"

	"github.com/targetkit/targetkit/core/broker"
	"github.com/targetkit/targetkit/pkg/sanitize"
)

// MaxDepth bounds attribute tree recursion. Brokers report shallow
// trees; anything deeper is hostile or broken data and stays unexpanded
// under its dotted key.
const MaxDepth = 8

// Namespace returns the flat keyword mapping for a target. The result
// is freshly allocated and safe for the caller to extend.
func Namespace(t *broker.Target) map[string]any {
	kws := make(map[string]any, len(t.Attrs)+2)
	flatten(kws, t.Attrs, "", 0)
	kws["target"] = sanitize.FileName(t.FullID)
	kws["type"] = t.Type()
	return kws
}

// WithBSP returns the selection variant of base for one sub-device: a
// copy with "bsp" set to the sub-device name and the sub-device's own
// scalar attributes merged at top level, shadowing base keys of the
// same name.
func WithBSP(base map[string]any, name string, attrs map[string]any) map[string]any {
	kws := make(map[string]any, len(base)+len(attrs)+1)
	maps.Copy(kws, base)
	kws["bsp"] = name
	mergeScalars(kws, attrs)
	return kws
}

// flatten walks the attribute tree copying tagged values: strings,
// integers and booleans as-is, null as "", maps both whole (member
// access) and recursively under dotted paths.
func flatten(dst map[string]any, attrs map[string]any, prefix string, depth int) {
	for key, value := range attrs {
		switch v := value.(type) {
		case nil:
			dst[prefix+key] = ""
		case string, bool, float64, int, int64:
			dst[prefix+key] = v
		case map[string]any:
			dst[prefix+key] = v
			if depth < MaxDepth {
				flatten(dst, v, prefix+key+".", depth+1)
			}
		default:
			// Arrays and anything exotic stay reachable but unexpanded.
			dst[prefix+key] = v
		}
	}
}

func mergeScalars(dst, src map[string]any) {
	for key, value := range src {
		switch v := value.(type) {
		case nil:
			dst[key] = ""
		case string, bool, float64, int, int64:
			dst[key] = v
		}
	}
}
