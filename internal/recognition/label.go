package recognition

import (
	"path/filepath"
	"strings"
)

// PersonLabel derives the person label from a raw source identifier,
// typically an uploaded filename. The label is the leading run of
// ASCII letters of the filename stem, lower-cased: "Alice_01.jpg"
// yields "alice". The second return is false when the stem has no
// alphabetic prefix ("007.jpg"), in which case the source is skipped
// by ingestion.
func PersonLabel(source string) (string, bool) {
	stem := strings.TrimSuffix(source, filepath.Ext(source))

	end := 0
	for end < len(stem) {
		c := stem[end]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			break
		}
		end++
	}
	if end == 0 {
		return "", false
	}
	return strings.ToLower(stem[:end]), true
}
