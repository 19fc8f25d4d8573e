package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var reDecisionDate = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2})?)?$`)

// SanitizeResponse removes or normalizes optional fields that don't meet our
// stricter schema, so an otherwise-usable response can still validate. We
// only touch OPTIONALS; a record missing original_text or carrying an
// unknown status stays broken and fails validation afterwards.
func SanitizeResponse(doc []byte) ([]byte, []string, error) {
	var dropped []string

	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		// a bare top-level array is a common model slip; wrap it
		var arr []any
		if aerr := json.Unmarshal(doc, &arr); aerr != nil {
			return nil, nil, err
		}
		m = map[string]any{"citations": arr}
		dropped = append(dropped, "top-level-wrapper")
	}

	items, ok := m["citations"].([]any)
	if !ok {
		return nil, nil, fmt.Errorf("citations field missing or not an array")
	}

	for i, it := range items {
		rec, ok := it.(map[string]any)
		if !ok {
			continue
		}
		key := func(field string) string { return fmt.Sprintf("citations[%d].%s", i, field) }

		// status: normalize case so "verified" passes the enum
		if v, ok := rec["status"].(string); ok {
			rec["status"] = strings.ToUpper(strings.TrimSpace(v))
		}

		// decision_date: drop if not YYYY[-MM[-DD]]
		if v, ok := rec["decision_date"]; ok {
			s, isStr := v.(string)
			if !isStr || (s != "" && !reDecisionDate.MatchString(strings.TrimSpace(s))) {
				delete(rec, "decision_date")
				dropped = append(dropped, key("decision_date"))
			} else {
				rec["decision_date"] = strings.TrimSpace(s)
			}
		}

		// note / court_name / pinpoint_reference: nulls and non-strings out
		for _, field := range []string{"note", "court_name", "pinpoint_reference", "corrected_text"} {
			if v, ok := rec[field]; ok {
				if _, isStr := v.(string); !isStr {
					delete(rec, field)
					dropped = append(dropped, key(field))
				}
			}
		}

		// sources: keep only string entries; drop if nothing survives
		if v, ok := rec["sources"]; ok {
			arr, isArr := v.([]any)
			if !isArr {
				delete(rec, "sources")
				dropped = append(dropped, key("sources"))
			} else {
				var keep []any
				for _, s := range arr {
					if str, isStr := s.(string); isStr && strings.TrimSpace(str) != "" {
						keep = append(keep, str)
					}
				}
				if len(keep) == 0 {
					delete(rec, "sources")
					dropped = append(dropped, key("sources"))
				} else {
					rec["sources"] = keep
				}
			}
		}

		items[i] = rec
	}
	m["citations"] = items

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}
