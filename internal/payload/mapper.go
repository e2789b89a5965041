package payload

// Transform renames the keys of body per mapping. Keys without a
// mapping entry pass through unchanged; no field is dropped and none is
// invented. When two source keys collide on one target key the one
// processed last wins, and processing follows the body's own key order.
// An empty mapping is the identity.
func Transform(body Object, mapping map[string]string) Object {
	if len(mapping) == 0 {
		return body
	}

	var out Object
	for _, key := range body.Keys() {
		target := key
		if renamed, ok := mapping[key]; ok {
			target = renamed
		}
		raw, _ := body.Get(key)
		out.Set(target, raw)
	}
	return out
}
