// Package set holds the few string-set helpers used on document id arrays.
package set

// Equal reports whether a and b hold the same ids, ignoring order and duplicates.
func Equal(a, b []string) bool {
	as := toMap(a)
	bs := toMap(b)
	if len(as) != len(bs) {
		return false
	}
	for k := range as {
		if _, ok := bs[k]; !ok {
			return false
		}
	}
	return true
}

// Intersect returns the ids of a that are also in b, in a's order.
func Intersect(a, b []string) []string {
	bs := toMap(b)
	var out []string
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		if _, ok := bs[v]; !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Unique drops repeated ids, keeping the first occurrence.
func Unique(a []string) []string {
	seen := make(map[string]struct{}, len(a))
	out := make([]string, 0, len(a))
	for _, v := range a {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func toMap(a []string) map[string]struct{} {
	m := make(map[string]struct{}, len(a))
	for _, v := range a {
		m[v] = struct{}{}
	}
	return m
}
