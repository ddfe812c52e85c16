package tariff

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalize trims s and converts it to NFC so that "Österreich" typed in
// a browser matches the spelling stored in the workbook.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// normalizePrefix normalizes a postal prefix. Spreadsheets store the
// prefix "01" as the number 1, so single digit prefixes are padded.
func normalizePrefix(s string) string {
	s = normalize(s)
	s = strings.TrimSuffix(s, ".0")
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		return "0" + s
	}

	return s
}
