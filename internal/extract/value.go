package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	digitsRe  = regexp.MustCompile(`\d+`)
	statKeyRe = regexp.MustCompile(`[^a-z0-9_]`)
)

// cleanText collapses runs of whitespace and trims the result.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// extractNumber returns the first digit run in s, or "".
func extractNumber(s string) string {
	return digitsRe.FindString(s)
}

// parseMoney normalizes money strings like "€22.5M" to "22500000". Values
// without a magnitude suffix pass through stripped of currency symbols.
func parseMoney(s string) string {
	s = strings.NewReplacer("€", "", "$", "", "£", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	switch {
	case strings.HasSuffix(s, "M"):
		return scaleMoney(strings.TrimSuffix(s, "M"), 1_000_000)
	case strings.HasSuffix(s, "K"):
		return scaleMoney(strings.TrimSuffix(s, "K"), 1_000)
	default:
		return s
	}
}

func scaleMoney(s string, factor float64) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return ""
	}
	return strconv.FormatInt(int64(f*factor), 10)
}

// normalizeStatKey lowercases a stat label and reduces it to snake_case.
func normalizeStatKey(s string) string {
	s = strings.ToLower(cleanText(s))
	s = strings.ReplaceAll(s, " ", "_")
	return statKeyRe.ReplaceAllString(s, "")
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// firstGroup returns the first capture group of re in s, or "".
func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
