package content

import (
	"strings"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run keeps the items that pass every filter. A filter drops an item when a
// value of its field equals one of the excludes, or when includes are set
// and no value equals any of them. Comparison ignores case.
func (f *Filterer) Run(items []RawItem, filters []Filter) []RawItem {
	if len(filters) == 0 {
		return items
	}

	kept := make([]RawItem, 0, len(items))
	for _, item := range items {
		if f.passes(item, filters) {
			kept = append(kept, item)
		}
	}
	return kept
}

func (f *Filterer) passes(item RawItem, filters []Filter) bool {
	for _, filter := range filters {
		values := f.getFieldValues(item, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesAny(values, exclude) {
				return false
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesAny(values, include) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}

	return true
}

func (f *Filterer) matchesAny(values []string, pattern string) bool {
	pattern = strings.TrimSpace(pattern)
	for _, value := range values {
		if strings.EqualFold(value, pattern) {
			return true
		}
	}
	return false
}

func (f *Filterer) getFieldValues(item RawItem, field string) []string {
	if field == "tags" {
		return normalizeTags(item["tags"])
	}
	if v := scalarString(item[field]); v != "" {
		return []string{v}
	}
	return nil
}
