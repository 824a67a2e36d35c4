package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// booleanTrueTokens / booleanFalseTokens are the documented token sets
// for boolean parameter replies (§4.3).
var booleanTrueTokens = map[string]bool{"true": true, "yes": true, "1": true, "on": true}
var booleanFalseTokens = map[string]bool{"false": true, "no": true, "0": true, "off": true}

// ParseParamValue parses raw text into a value matching spec.Type,
// shared by the settings editor (§4.3) and the tweak parameter editor
// (§4.4) so both use one parser (§9 design note).
func ParseParamValue(spec ParamSpec, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch spec.Type {
	case ParamInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("Invalid number. Please provide a valid number.")
		}
		return n, nil
	case ParamNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("Invalid number. Please provide a valid number.")
		}
		return f, nil
	case ParamBoolean:
		lower := strings.ToLower(raw)
		if booleanTrueTokens[lower] {
			return true, nil
		}
		if booleanFalseTokens[lower] {
			return false, nil
		}
		return nil, fmt.Errorf("Invalid boolean. Use true/yes/1/on or false/no/0/off.")
	default:
		return raw, nil
	}
}

// FormatParamValue renders a stored value for display in a button label
// or prompt, falling back to the literal "Not set".
func FormatParamValue(v any) string {
	if v == nil {
		return "Not set"
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "Not set"
		}
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", t)
	}
}
