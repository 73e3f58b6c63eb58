package analysis

import (
	"sort"
	"strings"
)

// Normalizer collapses competitor spelling variants onto canonical names
type Normalizer struct {
	variants    map[string]string
	byCanonical map[string][]string
}

var defaultNormalizer = NewNormalizer(nil)

type variantEntry struct {
	canonical string
	extra     bool
}

// NewNormalizer builds a normalizer from the built-in catalog plus extra
// variant -> canonical entries. Extra entries win over built-in ones.
//
// Chains are followed to their end: "a" -> "B" and "b" -> "C" resolve "a" to
// "C". When a chain loops, every name on the loop resolves to one spelling,
// preferring extra entries and then the lexically smallest.
func NewNormalizer(extra map[string]string) *Normalizer {
	entries := make(map[string]variantEntry, len(defaultVariants)+len(extra))
	for variant, canonical := range defaultVariants {
		entries[variant] = variantEntry{canonical: canonical}
	}
	for variant, canonical := range extra {
		variant = strings.ToLower(strings.TrimSpace(variant))
		canonical = strings.TrimSpace(canonical)
		if variant == "" || canonical == "" {
			continue
		}
		entries[variant] = variantEntry{canonical: canonical, extra: true}
	}

	// Spellings that lead to a name missing from the catalog, keyed by that name.
	dangling := make(map[string][]variantEntry)
	for _, entry := range entries {
		key := strings.ToLower(entry.canonical)
		if _, ok := entries[key]; !ok {
			dangling[key] = append(dangling[key], entry)
		}
	}

	variants := make(map[string]string, len(entries))
	for variant := range entries {
		variants[variant] = resolveCanonical(entries, dangling, variant)
	}
	selfMapped := make(map[string]string)
	for _, canonical := range variants {
		key := strings.ToLower(canonical)
		if _, ok := variants[key]; !ok {
			selfMapped[key] = canonical
		}
	}
	for key, canonical := range selfMapped {
		variants[key] = canonical
	}

	byCanonical := make(map[string][]string)
	for variant, canonical := range variants {
		key := strings.ToLower(canonical)
		byCanonical[key] = append(byCanonical[key], variant)
	}
	for _, list := range byCanonical {
		sort.Strings(list)
	}
	return &Normalizer{variants: variants, byCanonical: byCanonical}
}

// resolveCanonical walks variant's chain through entries, which is never
// written to, so the result does not depend on map order.
func resolveCanonical(entries map[string]variantEntry, dangling map[string][]variantEntry, variant string) string {
	var path []string
	onPath := make(map[string]int)
	current := variant
	for {
		entry, ok := entries[current]
		if !ok {
			return preferredSpelling(dangling[current])
		}
		if start, looped := onPath[current]; looped {
			loop := make([]variantEntry, 0, len(path)-start)
			for _, key := range path[start:] {
				loop = append(loop, entries[key])
			}
			return preferredSpelling(loop)
		}
		onPath[current] = len(path)
		path = append(path, current)
		current = strings.ToLower(entry.canonical)
	}
}

func preferredSpelling(candidates []variantEntry) string {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.extra != best.extra {
			if c.extra {
				best = c
			}
			continue
		}
		if c.canonical < best.canonical {
			best = c
		}
	}
	return best.canonical
}

// Normalize returns the canonical name for raw, or the trimmed input when the
// catalog has no entry. Empty input returns "".
func (n *Normalizer) Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := n.variants[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// VariantsOf lists the lower-cased spellings that normalize to the same name
// as canonical, including its own. Unknown names yield nil.
func (n *Normalizer) VariantsOf(canonical string) []string {
	resolved := n.Normalize(canonical)
	if resolved == "" {
		return nil
	}
	return n.byCanonical[strings.ToLower(resolved)]
}

// Normalize uses the built-in catalog.
func Normalize(raw string) string {
	return defaultNormalizer.Normalize(raw)
}
