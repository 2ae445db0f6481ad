package sheets

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	isoPeriod     = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})[-_./](0?[1-9]|1[0-2])(?:\D|$)`)
	dottedPeriod  = regexp.MustCompile(`(?:^|\D)(0?[1-9]|1[0-2])[-_./]((?:19|20)\d{2})(?:\D|$)`)
	namedPeriod   = regexp.MustCompile(`(?i)(\p{L}+)[\s_.,-]*((?:19|20)\d{2})`)
	monthPrefixes = []struct {
		prefix string
		month  int
	}{
		{"jan", 1}, {"feb", 2}, {"mar", 3}, {"apr", 4}, {"may", 5}, {"jun", 6},
		{"jul", 7}, {"aug", 8}, {"sep", 9}, {"oct", 10}, {"nov", 11}, {"dec", 12},
		{"янв", 1}, {"фев", 2}, {"мар", 3}, {"апр", 4}, {"мая", 5}, {"май", 5},
		{"июн", 6}, {"июл", 7}, {"авг", 8}, {"сен", 9}, {"окт", 10}, {"ноя", 11}, {"дек", 12},
	}
)

// ExtractPeriod finds a month and year in a sheet or file name, such as
// "2024-03", "03.2024", "March 2024" or "Март 2024".
func ExtractPeriod(text string) (month, year int, found bool) {
	if m := isoPeriod.FindStringSubmatch(text); m != nil {
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		return month, year, true
	}
	if m := dottedPeriod.FindStringSubmatch(text); m != nil {
		month, _ = strconv.Atoi(m[1])
		year, _ = strconv.Atoi(m[2])
		return month, year, true
	}
	for _, m := range namedPeriod.FindAllStringSubmatch(text, -1) {
		if mon := monthFromName(m[1]); mon > 0 {
			year, _ = strconv.Atoi(m[2])
			return mon, year, true
		}
	}
	return 0, 0, false
}

func monthFromName(word string) int {
	word = strings.ToLower(word)
	for _, p := range monthPrefixes {
		if strings.HasPrefix(word, p.prefix) {
			return p.month
		}
	}
	return 0
}
