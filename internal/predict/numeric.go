package predict

import (
	"strconv"
	"strings"

	"github.com/verifactura/invoice-extractor/internal/common"
)

// ParseNumber interprets a feature value as a non-negative number. Strings
// accept Latin American formatting: the last separator symbol wins as the
// decimal mark, every other one is a thousands grouping. "17.900,50" and
// "17,900.50" both come out as 17900.50.
func ParseNumber(name string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return checkSign(name, n)
	case float32:
		return checkSign(name, float64(n))
	case int:
		return checkSign(name, float64(n))
	case int64:
		return checkSign(name, float64(n))
	case string:
		return parseNumberString(name, n)
	default:
		return 0, common.Errorf(common.KindInvalidInput,
			"feature %q must be a number or numeric string, got %T", name, v)
	}
}

func parseNumberString(name, s string) (float64, error) {
	cleaned := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) == 0 {
		return 0, common.Errorf(common.KindInvalidInput,
			"feature %q has no numeric content in %q", name, s)
	}

	text := string(cleaned)
	lastComma := strings.LastIndex(text, ",")
	lastDot := strings.LastIndex(text, ".")

	// With both symbols present the later one is the decimal mark. A single
	// symbol is decimal only when it appears once; repeated, it is grouping.
	decimal := byte(0)
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			decimal = ','
		} else {
			decimal = '.'
		}
	case lastComma >= 0 && strings.Count(text, ",") == 1:
		decimal = ','
	case lastDot >= 0 && strings.Count(text, ".") == 1:
		decimal = '.'
	}

	var b strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case ',', '.':
			if decimal != 0 && c == decimal && (i == lastComma || i == lastDot) {
				b.WriteByte('.')
			}
			// grouping separators are dropped
		default:
			b.WriteByte(c)
		}
	}

	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, common.NewError(common.KindInvalidInput,
			"feature "+strconv.Quote(name)+" is not a valid number", err)
	}
	return checkSign(name, n)
}

func checkSign(name string, n float64) (float64, error) {
	if n < 0 {
		return 0, common.Errorf(common.KindInvalidInput,
			"feature %q must not be negative, got %v", name, n)
	}
	return n, nil
}

// NormalizeText canonicalizes a categorical feature: trimmed, uppercased,
// never empty.
func NormalizeText(name string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", common.Errorf(common.KindInvalidInput,
			"feature %q must be a string, got %T", name, v)
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", common.Errorf(common.KindInvalidInput, "feature %q is empty", name)
	}
	return s, nil
}
