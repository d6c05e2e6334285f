package extract

import "strings"

// IsMeaningful reports whether raw page data carries anything worth keeping: a
// non-empty table, numeric candidates, or more than 200 characters of content text.
func IsMeaningful(raw map[string]any) bool {
	if len(raw) == 0 {
		return false
	}

	for k, v := range raw {
		if strings.Contains(k, "table") && nonEmpty(v) {
			return true
		}
	}

	for k, v := range raw {
		numeric := k == "extracted_prices" || k == "extracted_volumes" || k == "percentages" ||
			strings.Contains(k, "price") || strings.Contains(k, "volume")
		if numeric && nonEmpty(v) {
			return true
		}
	}

	for k, v := range raw {
		if !(strings.Contains(k, "content") || strings.Contains(k, "section")) {
			continue
		}
		if s, ok := v.(string); ok && len(s) > 200 {
			return true
		}
	}
	return false
}

func nonEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case []string:
		return len(t) > 0
	case []Row:
		return len(t) > 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}
