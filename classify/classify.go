// Package classify maps variant labels to a coarse category and a grouping
// text. Classification is a pure function of the label.
package classify

import (
	"strings"

	"github.com/use-agent/variantsync/models"
)

// UnknownText is the normalized text returned for an empty label.
const UnknownText = "unknown"

// Classify maps a variant label to its category and normalized text.
//
// Rules, first match wins:
//  1. Everything from the first comma (ASCII or full-width) on is a qualifier and dropped.
//  2. The first separator present splits the label; the first non-empty
//     segment is classified on its own by rules 3-7.
//  3. A style marker: STYLE, text up to and including the marker.
//  4. A color keyword after position 0: COLOR, text before the keyword.
//  5. A size keyword after position 0: SIZE, text before the keyword.
//  6. A digit run after position 0: GENERIC, text before the digits.
//  7. GENERIC, the whole label.
func Classify(label string) models.ClassifiedLabel {
	s := strings.TrimSpace(label)
	if s == "" {
		return models.ClassifiedLabel{Category: models.CategoryGeneric, NormalizedText: UnknownText}
	}

	if i := strings.IndexAny(s, ",，"); i > 0 {
		if head := strings.TrimSpace(s[:i]); head != "" {
			s = head
		}
	}

	for _, sep := range separators {
		if !strings.Contains(s, sep) {
			continue
		}
		for _, seg := range strings.Split(s, sep) {
			if seg = strings.TrimSpace(seg); seg != "" {
				return classifyBare(seg)
			}
		}
	}
	return classifyBare(s)
}

// classifyBare applies rules 3-7 to a label with no separators left to split on.
func classifyBare(s string) models.ClassifiedLabel {
	lower := lowerASCII(s)

	if idx, kw := earliest(lower, styleMarkers, 0); idx >= 0 {
		return models.ClassifiedLabel{
			Category:       models.CategoryStyle,
			NormalizedText: s[:idx+len(kw)],
		}
	}

	if idx, _ := earliest(lower, colorKeywords, 1); idx > 0 {
		if prefix := strings.TrimSpace(s[:idx]); prefix != "" {
			return models.ClassifiedLabel{Category: models.CategoryColor, NormalizedText: prefix}
		}
	}

	if idx, _ := earliest(lower, sizeKeywords, 1); idx > 0 {
		if prefix := strings.TrimSpace(s[:idx]); prefix != "" {
			return models.ClassifiedLabel{Category: models.CategorySize, NormalizedText: prefix}
		}
	}

	if idx := strings.IndexAny(s, "0123456789"); idx > 0 {
		if prefix := strings.TrimSpace(s[:idx]); prefix != "" {
			return models.ClassifiedLabel{Category: models.CategoryGeneric, NormalizedText: prefix}
		}
	}

	return models.ClassifiedLabel{Category: models.CategoryGeneric, NormalizedText: s}
}

// SharesKeyword reports whether two labels contain a common keyword from the
// fixed style/color/size tables.
func SharesKeyword(a, b string) bool {
	la, lb := lowerASCII(a), lowerASCII(b)
	for _, kw := range allKeywords {
		if indexKeyword(la, kw, 0) >= 0 && indexKeyword(lb, kw, 0) >= 0 {
			return true
		}
	}
	return false
}

// Keywords returns the keywords of the fixed tables found in label, in table order.
func Keywords(label string) []string {
	lower := lowerASCII(label)
	var found []string
	for _, kw := range allKeywords {
		if indexKeyword(lower, kw, 0) >= 0 {
			found = append(found, kw)
		}
	}
	return found
}

// earliest returns the byte offset and keyword of the first keyword occurrence
// at or after from. Ties go to the longer keyword. Returns -1 if none match.
func earliest(lower string, keywords []string, from int) (int, string) {
	best, bestKW := -1, ""
	for _, kw := range keywords {
		idx := indexKeyword(lower, kw, from)
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best || (idx == best && len(kw) > len(bestKW)) {
			best, bestKW = idx, kw
		}
	}
	return best, bestKW
}

// indexKeyword finds kw in lower at or after from. Alphabetic ASCII keywords
// must not be preceded by an ASCII letter or digit, so "red" does not match
// inside "shredded".
func indexKeyword(lower, kw string, from int) int {
	for from <= len(lower) {
		i := strings.Index(lower[from:], kw)
		if i < 0 {
			return -1
		}
		i += from
		if !isASCIIWord(kw) || i == 0 || !isASCIIAlnum(lower[i-1]) {
			return i
		}
		from = i + 1
	}
	return -1
}

func isASCIIWord(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return s != ""
}

func isASCIIAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// lowerASCII lowercases ASCII letters only, keeping byte offsets aligned with s.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
