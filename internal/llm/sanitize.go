package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var reDecimal = regexp.MustCompile(`^-?\d+(\.\d{1,2})?$`)

var moneyKeys = map[string][]string{
	"contract": {"contract_value", "retention_pct"},
	"invoice":  {"subtotal", "tax", "total"},
}

// SanitizeOptionalFields removes or normalizes optional fields that do not
// meet the stricter schema, so the overall document can still validate.
// Required top-level fields are never touched. Returns the cleaned JSON
// and the list of keys that were dropped or rewritten.
func SanitizeOptionalFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var dropped []string

	// remove unknown top-level keys (additionalProperties: false)
	allowed := map[string]struct{}{
		"document_type": {}, "summary": {}, "confidence": {},
		"contract": {}, "drawing": {}, "invoice": {},
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	for payload, keys := range moneyKeys {
		sub, ok := m[payload].(map[string]any)
		if !ok {
			continue
		}
		for _, k := range keys {
			dropped = append(dropped, coerceMoney(sub, payload, k)...)
		}
		for _, k := range []string{"start_date", "end_date", "issue_date", "due_date"} {
			dropped = append(dropped, dropBadDate(sub, payload, k)...)
		}
		if v, ok := sub["currency_code"].(string); ok {
			s := strings.ToUpper(strings.TrimSpace(v))
			if len(s) != 3 {
				delete(sub, "currency_code")
				dropped = append(dropped, payload+".currency_code")
			} else {
				sub["currency_code"] = s
			}
		}
	}

	// invoice line items: coerce the row money fields too
	if inv, ok := m["invoice"].(map[string]any); ok {
		if items, ok := inv["line_items"].([]any); ok {
			for i, it := range items {
				row, ok := it.(map[string]any)
				if !ok {
					continue
				}
				for _, k := range []string{"quantity", "unit_price", "amount"} {
					dropped = append(dropped, coerceMoney(row, fmt.Sprintf("invoice.line_items[%d]", i), k)...)
				}
			}
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}

// coerceMoney normalizes one money-ish key in place: numbers become
// two-decimal strings, null/empty/unparseable values are dropped.
func coerceMoney(m map[string]any, scope, k string) []string {
	v, ok := m[k]
	if !ok {
		return nil
	}
	full := scope + "." + k
	switch t := v.(type) {
	case nil:
		delete(m, k)
		return []string{full + "(null)"}
	case float64:
		m[k] = strconv.FormatFloat(t, 'f', 2, 64)
		return []string{full + "(number)"}
	case string:
		s := strings.TrimSpace(strings.TrimLeft(t, "$€£ "))
		s = strings.ReplaceAll(s, ",", "")
		if s == "" || strings.EqualFold(s, "null") {
			delete(m, k)
			return []string{full + "(empty)"}
		}
		if reDecimal.MatchString(s) {
			m[k] = s
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			m[k] = strconv.FormatFloat(f, 'f', 2, 64)
			return []string{full + "(reformat)"}
		}
		delete(m, k)
		return []string{full + "(unparseable)"}
	default:
		delete(m, k)
		return []string{full + "(type)"}
	}
}

var reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func dropBadDate(m map[string]any, scope, k string) []string {
	v, ok := m[k]
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if ok {
		s = strings.TrimSpace(s)
		if reISODate.MatchString(s) {
			m[k] = s
			return nil
		}
	}
	delete(m, k)
	return []string{scope + "." + k + "(date)"}
}
