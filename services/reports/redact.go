package reports

import (
	"regexp"
	"sort"
	"strings"
)

// PIIType is a category of personal data removed from narrative prompts
type PIIType string

const (
	PIITypeEmail      PIIType = "email"
	PIITypePhone      PIIType = "phone"
	PIITypeSSN        PIIType = "ssn"
	PIITypeCreditCard PIIType = "credit_card"
)

// Detection is one match of personal data in a text
type Detection struct {
	Type  PIIType
	Value string
	Start int
	End   int
}

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\b[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s][0-9]{4}\b`),
		regexp.MustCompile(`\b[0-9]{3}-[0-9]{4}\b`),
	}

	ssnPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`),
		regexp.MustCompile(`\b[0-9]{9}\b`),
	}

	cardPattern = regexp.MustCompile(`\b(?:[0-9][ -]?){12,18}[0-9]\b`)
)

// DetectPII returns every match of personal data in text, ordered by position
func DetectPII(text string) []Detection {
	var found []Detection
	add := func(t PIIType, loc []int) {
		found = append(found, Detection{Type: t, Value: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}

	for _, loc := range emailPattern.FindAllStringIndex(text, -1) {
		add(PIITypeEmail, loc)
	}
	for _, loc := range cardPattern.FindAllStringIndex(text, -1) {
		if luhnCheck(text[loc[0]:loc[1]]) {
			add(PIITypeCreditCard, loc)
		}
	}
	for i, p := range ssnPatterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			if i == 1 && !looksLikeSSN(text[loc[0]:loc[1]]) {
				continue
			}
			add(PIITypeSSN, loc)
		}
	}
	for _, p := range phonePatterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			add(PIITypePhone, loc)
		}
	}

	return dropOverlaps(found)
}

// dropOverlaps keeps the earliest, then longest, of any overlapping matches
func dropOverlaps(found []Detection) []Detection {
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Start != found[j].Start {
			return found[i].Start < found[j].Start
		}
		return found[i].End > found[j].End
	})

	kept := found[:0]
	end := -1
	for _, d := range found {
		if d.Start < end {
			continue
		}
		kept = append(kept, d)
		end = d.End
	}
	return kept
}

// RedactPII replaces personal data in text with typed placeholders
func RedactPII(text string) string {
	detections := DetectPII(text)
	if len(detections) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, d := range detections {
		b.WriteString(text[last:d.Start])
		b.WriteString(placeholder(d.Type))
		last = d.End
	}
	b.WriteString(text[last:])
	return b.String()
}

func placeholder(t PIIType) string {
	switch t {
	case PIITypeEmail:
		return "[EMAIL_REDACTED]"
	case PIITypePhone:
		return "[PHONE_REDACTED]"
	case PIITypeSSN:
		return "[SSN_REDACTED]"
	case PIITypeCreditCard:
		return "[CC_REDACTED]"
	default:
		return "[REDACTED]"
	}
}

// looksLikeSSN rejects nine digit numbers that can never be issued
func looksLikeSSN(s string) bool {
	if len(s) != 9 {
		return false
	}
	if s[:3] == "000" || s[3:5] == "00" || s[5:] == "0000" {
		return false
	}
	return !strings.HasPrefix(s, "666") && !strings.HasPrefix(s, "9")
}

func luhnCheck(number string) bool {
	number = strings.NewReplacer(" ", "", "-", "").Replace(number)
	if len(number) < 13 || len(number) > 19 {
		return false
	}

	sum := 0
	second := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if second {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		second = !second
	}
	return sum%10 == 0
}
