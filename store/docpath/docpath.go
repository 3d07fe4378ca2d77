// Package docpath navigates and mutates decoded document trees
// (map[string]any) along dotted-path segments. It is shared by the
// backends that hold a guild document as one opaque value and apply
// subpath operations in Go (memory, bolt, sqlite, postgres).
package docpath

// Get descends doc along parts and returns the value found.
// ok is false when any intermediate segment is missing or not a map.
func Get(doc map[string]any, parts []string) (any, bool) {
	if len(parts) == 0 {
		return doc, doc != nil
	}

	cur := doc
	for i, part := range parts {
		v, ok := cur[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// Set writes value at parts, creating intermediate maps as needed.
// A non-map intermediate value is replaced by a fresh map.
func Set(doc map[string]any, parts []string, value any) {
	cur := doc
	for i, part := range parts {
		if i == len(parts)-1 {
			cur[part] = value
			return
		}
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[part] = next
		}
		cur = next
	}
}

// Delete removes the value at parts and reports whether one existed.
// Empty intermediate maps are left in place.
func Delete(doc map[string]any, parts []string) bool {
	if len(parts) == 0 {
		return false
	}

	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			return false
		}
		cur = next
	}

	last := parts[len(parts)-1]
	if _, ok := cur[last]; !ok {
		return false
	}
	delete(cur, last)
	return true
}
