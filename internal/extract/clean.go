package extract

import "regexp"

var (
	horizontalWhitespaceRe = regexp.MustCompile(`(?m)[\t\x0b\x0c\r ]+`)
	blankLinesRe           = regexp.MustCompile(`\n{3,}`)
	crlfRe                 = regexp.MustCompile(`\r\n?`)
)

// CleanText normalizes line endings, collapses runs of horizontal
// whitespace, and collapses runs of three or more newlines (two or more
// blank lines) down to one blank line, matching the normalization every extracted document goes through
// before chunking.
func CleanText(s string) string {
	s = crlfRe.ReplaceAllString(s, "\n")
	s = horizontalWhitespaceRe.ReplaceAllString(s, " ")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return trimSpaceLines(s)
}

func trimSpaceLines(s string) string {
	start, end := 0, len(s)
	for start < end && isSpaceByte(s[start]) {
		start++
	}
	for end > start && isSpaceByte(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}
