// Package ntd detects and canonicalizes references to normative-technical
// documents (СП, СНиП, ГОСТ, estimate norms, government acts).
package ntd

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	amendmentPrefixRe = regexp.MustCompile(`(?i)^(?:изм(?:\.|енение)?\s*\d*\s*к|поправка\s*\d*\s*к)\s+`)
	refPrefixRe       = regexp.MustCompile(`(?i)^(?:см\.|приложение\s+\S+\s+к|согласно|к)\s+`)
	dashYearRe        = regexp.MustCompile(`(\.\d+)-\d{2,4}$`)
	fullYearRe        = regexp.MustCompile(`(?i)[.\-\s]?(?:19|20)\d{2}(?:\s*\(?\s*с\s*изм[^)]*\)?)?$`)
	shortYearRe       = regexp.MustCompile(`\.(\d{2})$`)
	amendSuffixRe     = regexp.MustCompile(`(?i)[\s,(]+(?:с\s*изм(?:\.|енениями)?|изм\.?\s*\d*|поправка\s*\d*)[^)]*\)?$`)
	trailingJunkRe    = regexp.MustCompile(`[\s.\-–—,;:()]+$`)
	innerSpaceRe      = regexp.MustCompile(`\s+`)
)

// Families whose conventional spelling is mixed-case. Restored after the
// final uppercase pass so canonical IDs match the printed form.
var familySpelling = map[string]string{
	"СНИП": "СНиП",
}

// Canonicalize maps raw normative-reference text to its stable identifier.
// Idempotent: Canonicalize(Canonicalize(x)) == Canonicalize(x).
func Canonicalize(raw string) string {
	s := strings.TrimSpace(raw)

	s = amendmentPrefixRe.ReplaceAllString(s, "")
	s = refPrefixRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	// Dash years attach to dotted code numbers (СНиП 2.01.07-85). Estimate
	// norms chain dash segments (ТЕР 81-02-09), so a bare -NN suffix is
	// never touched: stripping it would not be idempotent.
	s = dashYearRe.ReplaceAllString(s, "$1")
	s = fullYearRe.ReplaceAllString(s, "")
	s = stripShortYear(s)
	s = amendSuffixRe.ReplaceAllString(s, "")

	s = trailingJunkRe.ReplaceAllString(s, "")
	s = innerSpaceRe.ReplaceAllString(s, " ")
	s = strings.ToUpper(strings.TrimSpace(s))

	for upper, spelled := range familySpelling {
		if strings.HasPrefix(s, upper+" ") || s == upper {
			s = spelled + strings.TrimPrefix(s, upper)
			break
		}
	}
	return s
}

// stripShortYear removes a trailing dotted 2-digit year. Document numbers
// legitimately end in small dotted segments (СНиП 2.01.07), so only year-like
// fragments are removed: truncations of modern years ("19", "20") and the
// 80..99 range used by Soviet-era codes.
func stripShortYear(s string) string {
	m := shortYearRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	digits := m[1]
	if digits == "19" || digits == "20" {
		return strings.TrimSuffix(s, m[0])
	}
	if n, err := strconv.Atoi(digits); err == nil && n >= 80 && n <= 99 {
		return strings.TrimSuffix(s, m[0])
	}
	return s
}
