// Package naming holds the pure filename/date helpers shared by the
// classification pass and the full-text enhancer.
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Both ASCII and full-width variants of the characters Windows and
	// macOS reject in filenames.
	reInvalidChars = regexp.MustCompile(`[\\/:*?"<>|：／＊？＂＜＞｜]`)
	reWhitespace   = regexp.MustCompile(`[\s　]`)
	reUnderscores  = regexp.MustCompile(`_+`)

	reEra       = regexp.MustCompile(`(令和|平成|昭和|大正|明治|令|平|昭|大|明|[RHSMT])\s*([0-9０-９]+|元)\s*年?`)
	reDateFull  = regexp.MustCompile(`(\d{4})[/\-年./\s]*(\d{1,2})[/\-月./\s]*(\d{1,2})`)
	reDate8     = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`)
	reYearOnly  = regexp.MustCompile(`(\d{4})年?`)
	fwDigits    = strings.NewReplacer("０", "0", "１", "1", "２", "2", "３", "3", "４", "4", "５", "5", "６", "6", "７", "7", "８", "8", "９", "9")
	eraBaseYear = map[string]int{
		"令和": 2018, "令": 2018, "R": 2018,
		"平成": 1988, "平": 1988, "H": 1988,
		"昭和": 1925, "昭": 1925, "S": 1925,
		"大正": 1911, "大": 1911, "T": 1911,
		"明治": 1867, "明": 1867, "M": 1867,
	}
)

// SanitizeFilename replaces characters that are illegal or awkward in
// filenames, collapses whitespace runs into single underscores, and trims
// leading/trailing underscores and whitespace. Empty input stays empty.
func SanitizeFilename(name string) string {
	if name == "" {
		return ""
	}
	s := reInvalidChars.ReplaceAllString(name, "_")
	s = reWhitespace.ReplaceAllString(s, "_")
	s = reUnderscores.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	return strings.TrimSpace(s)
}

// ConvertJapaneseEraToWestern rewrites the first era-year span (令和5年, H30,
// 平成元年, …) as a western year followed by 年, normalizing `.` and `-` in
// the remaining suffix to `/`. Input is returned unchanged when no era
// pattern matches or when it is the 不明 placeholder.
func ConvertJapaneseEraToWestern(dateStr string) string {
	if dateStr == "" || dateStr == "不明" {
		return dateStr
	}

	loc := reEra.FindStringSubmatchIndex(dateStr)
	if loc == nil {
		return dateStr
	}

	eraName := dateStr[loc[2]:loc[3]]
	yearStr := dateStr[loc[4]:loc[5]]

	var year int
	if yearStr == "元" {
		year = 1
	} else {
		n, err := strconv.Atoi(fwDigits.Replace(yearStr))
		if err != nil {
			return dateStr
		}
		year = n
	}

	westernYear := eraBaseYear[eraName] + year
	suffix := dateStr[loc[1]:]
	suffix = strings.ReplaceAll(suffix, ".", "/")
	suffix = strings.ReplaceAll(suffix, "-", "/")
	return dateStr[:loc[0]] + strconv.Itoa(westernYear) + "年" + suffix
}

// ExtractYYYYMMDD pulls a canonical YYYYMMDD date out of free text, applying
// era conversion first. A bare 4-digit year yields `<year>0000`. The second
// return value reports whether anything date-like was found.
func ExtractYYYYMMDD(dateStr string) (string, bool) {
	if dateStr == "" {
		return "", false
	}

	dateStr = ConvertJapaneseEraToWestern(dateStr)

	for _, re := range []*regexp.Regexp{reDateFull, reDate8} {
		if m := re.FindStringSubmatch(dateStr); m != nil {
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])
			return fmt.Sprintf("%s%02d%02d", m[1], month, day), true
		}
	}

	if m := reYearOnly.FindStringSubmatch(dateStr); m != nil {
		return m[1] + "0000", true
	}
	return "", false
}
