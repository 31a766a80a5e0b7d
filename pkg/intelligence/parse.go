package intelligence

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	firstIntegerRe  = regexp.MustCompile(`^\D*(\d+)`)
	listMarkerRe    = regexp.MustCompile(`^\s*\d+\.\s*`)
	ratingSeparator = regexp.MustCompile(`[;,\n]`)
	ratingOrdinalRe = regexp.MustCompile(`^\s*\d+[.)]\s+`)
)

// decodeJSON unmarshals a model response into v, repairing it first when it
// is not valid JSON. Code fences around the payload are tolerated.
func decodeJSON(response string, v interface{}) bool {
	s := strings.TrimSpace(response)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return false
	}
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return true
	}
	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(repaired), v) == nil
}

// number accepts JSON numbers and numeric strings.
type number struct {
	value float64
	ok    bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		n.value, n.ok = f, true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if v, ok := ParseFirstInteger(s); ok {
			n.value, n.ok = v, true
		}
	}
	return nil
}

// ParseFirstInteger returns the first run of digits in s, ignoring any
// leading non-digit characters.
func ParseFirstInteger(s string) (float64, bool) {
	m := firstIntegerRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseRating extracts a single rating from a model response. The
// {"rating": N} object is preferred; otherwise the first integer is used.
func ParseRating(response string) (float64, bool) {
	var obj struct {
		Rating number `json:"rating"`
	}
	if decodeJSON(response, &obj) && obj.Rating.ok {
		return obj.Rating.value, true
	}
	return ParseFirstInteger(response)
}

// ParseRatings extracts one rating per item from a batch response. The
// {"ratings": [...]} object (or a bare array) is preferred; otherwise the
// response is split on semicolons, commas or newlines, and a leading "1. "
// ordinal on an item is skipped when a rating follows it. Items that cannot
// be read are reported with ok=false at their position.
func ParseRatings(response string) (values []float64, ok []bool) {
	var obj struct {
		Ratings []number `json:"ratings"`
	}
	if decodeJSON(response, &obj) && obj.Ratings != nil {
		return unpack(obj.Ratings)
	}
	var arr []number
	if decodeJSON(response, &arr) {
		return unpack(arr)
	}

	for _, part := range ratingSeparator.Split(response, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if m := ratingOrdinalRe.FindString(part); m != "" {
			if _, rated := ParseFirstInteger(part[len(m):]); rated {
				part = part[len(m):]
			}
		}
		v, good := ParseFirstInteger(part)
		values = append(values, v)
		ok = append(ok, good)
	}
	return values, ok
}

func unpack(numbers []number) ([]float64, []bool) {
	values := make([]float64, len(numbers))
	ok := make([]bool, len(numbers))
	for i, n := range numbers {
		values[i], ok[i] = n.value, n.ok
	}
	return values, ok
}

// ParseList splits a model response into items, one per line, stripping
// "1. " style ordinal markers and blank lines. A JSON array of strings (or an
// object holding one) is accepted as well.
func ParseList(response string) []string {
	var arr []string
	if decodeJSON(response, &arr) {
		return cleanItems(arr)
	}
	var obj map[string][]string
	if decodeJSON(response, &obj) {
		for _, items := range obj {
			return cleanItems(items)
		}
	}
	return cleanItems(strings.Split(response, "\n"))
}

func cleanItems(lines []string) []string {
	items := []string{}
	for _, line := range lines {
		line = strings.TrimSpace(listMarkerRe.ReplaceAllString(line, ""))
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}
