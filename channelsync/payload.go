package channelsync

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Inbound payloads are handled as raw maps because platforms and the content
// repository disagree on envelopes, casing and numeric encodings. These
// helpers normalize access.

func asString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}

func getString(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			if s := asString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func getInt(obj map[string]interface{}, keys ...string) int {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			switch val := v.(type) {
			case float64:
				return int(val)
			case json.Number:
				if n, err := val.Int64(); err == nil {
					return int(n)
				}
			case string:
				if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
					return n
				}
			}
		}
	}
	return 0
}

func getDecimal(obj map[string]interface{}, keys ...string) decimal.Decimal {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			if d, ok := decimalFrom(v); ok {
				return d
			}
		}
	}
	return decimal.Zero
}

func decimalFrom(v interface{}) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), true
	case json.Number:
		if d, err := decimal.NewFromString(val.String()); err == nil {
			return d, true
		}
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(val)); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

func getMap(obj map[string]interface{}, keys ...string) map[string]interface{} {
	for _, key := range keys {
		if v, ok := obj[key].(map[string]interface{}); ok {
			return v
		}
	}
	return nil
}

func getSlice(obj map[string]interface{}, keys ...string) []interface{} {
	for _, key := range keys {
		if v, ok := obj[key].([]interface{}); ok {
			return v
		}
	}
	return nil
}
