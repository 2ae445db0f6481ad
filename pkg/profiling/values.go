package profiling

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// IsBlank reports whether a cell value counts as null.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// booleanWords are the accepted boolean literals, compared case-insensitively.
var booleanWords = map[string]bool{
	"true":  true,
	"false": true,
	"yes":   true,
	"no":    true,
	"0":     true,
	"1":     true,
	"да":    true,
	"нет":   true,
}

// IsBooleanLiteral reports whether s is one of the recognized boolean words.
func IsBooleanLiteral(s string) bool {
	return booleanWords[strings.ToLower(strings.TrimSpace(s))]
}

// currencyTokens are removed before numeric parsing. Longer tokens come first
// so "руб." is stripped before "р".
var currencyTokens = []string{
	"USD", "EUR", "GBP", "RUB", "руб.", "руб", "р.", "$", "€", "£", "¥", "₽",
}

// ParseNumber parses a spreadsheet number after stripping currency symbols,
// percent signs and thousands separators. (123) is read as -123.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
		negative = true
	}

	for _, token := range currencyTokens {
		s = strings.ReplaceAll(s, token, "")
	}
	s = strings.ReplaceAll(s, "%", "")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\'':
			return -1
		}
		return r
	}, s)

	hasComma := strings.Contains(s, ",")
	hasPeriod := strings.Contains(s, ".")
	switch {
	case hasComma && hasPeriod:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		comma := strings.Index(s, ",")
		if strings.Count(s, ",") == 1 && (len(s)-comma-1 != 3 || isZeroInteger(s[:comma])) {
			// 12,5 and 0,125 use a decimal comma, 12,500 a thousands separator
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	if s == "" || s == "-" || s == "+" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// isZeroInteger reports whether s is an integer part of zero: "0", "-0", "+0" or empty.
func isZeroInteger(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return strings.Trim(s, "0") == ""
}

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
	"02.01.06",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"01-02-06",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"Jan 2, 2006",
	"2 January 2006",
}

var dateLikePattern = regexp.MustCompile(`^\d{1,4}[./-]\d{1,2}[./-]\d{1,4}([ T]\d{1,2}:\d{2}(:\d{2})?)?$`)

// ParseDate parses s using the known spreadsheet date layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LooksLikeDate reports whether s has a date shape or parses as a date.
func LooksLikeDate(s string) bool {
	s = strings.TrimSpace(s)
	if dateLikePattern.MatchString(s) {
		return true
	}
	_, ok := ParseDate(s)
	return ok
}

// excelEpoch is day zero of the 1900 date system as used by spreadsheet serials.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseExcelSerial converts a spreadsheet serial day number into a date.
func ParseExcelSerial(s string) (time.Time, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) {
		return time.Time{}, false
	}
	days := int(v)
	return excelEpoch.AddDate(0, 0, days), true
}
