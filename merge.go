package envsmith

import "sort"

// mergeFiles combines per-file assignment sequences into a single Map.
// Files are processed in caller order; within a file later lines win, and
// across files later files win. When base is non-nil its entries seed the
// result; override controls whether file-supplied values replace values
// already present in base (override=false keeps the base value).
func mergeFiles(fileSets [][]RawAssignment, base map[string]string, override bool) *Map {
	merged := NewMap()

	var fromBase map[string]bool
	if base != nil {
		fromBase = make(map[string]bool, len(base))
		keys := make([]string, 0, len(base))
		for k := range base {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			merged.Set(k, base[k])
			fromBase[k] = true
		}
	}

	for _, assignments := range fileSets {
		for _, a := range assignments {
			if fromBase[a.Key] && !override {
				continue
			}
			merged.Set(a.Key, a.Value)
		}
	}

	return merged
}
