package csv

import (
	"strings"
	"unicode/utf8"
)

// DetectDelimiter detects the CSV delimiter by analyzing the first few lines
func DetectDelimiter(content string) Delimiter {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 {
		return DelimiterComma
	}

	// Take first 5 non-empty lines
	sampleLines := make([]string, 0, 5)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			sampleLines = append(sampleLines, trimmed)
			if len(sampleLines) >= 5 {
				break
			}
		}
	}

	if len(sampleLines) == 0 {
		return DelimiterComma
	}

	delimiters := []Delimiter{DelimiterComma, DelimiterSemicolon, DelimiterTab}
	bestDelimiter := DelimiterComma
	maxConsistency := 0.0

	for _, delim := range delimiters {
		delimStr := string(delim)
		counts := make([]int, 0, len(sampleLines))

		for _, line := range sampleLines {
			counts = append(counts, strings.Count(line, delimStr))
		}

		// Consistency favors a delimiter that appears the same number of
		// times on every sampled line.
		sum := 0
		for _, c := range counts {
			sum += c
		}
		avgCount := float64(sum) / float64(len(counts))

		if avgCount == 0 {
			continue
		}

		variance := 0.0
		for _, c := range counts {
			diff := float64(c) - avgCount
			variance += diff * diff
		}
		variance /= float64(len(counts))

		consistency := avgCount / (1.0 + variance)
		if consistency > maxConsistency {
			maxConsistency = consistency
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// SplitRows splits decoded CSV content into rows of fields with RFC4180
// quoting: a delimiter or newline inside quotes is literal, and a doubled
// quote inside quotes emits one literal quote. Row boundaries respect open
// quotes, so a quoted field may span raw newlines.
func SplitRows(content string, delimiter rune, quoteChar rune) [][]string {
	// Normalize line endings before scanning
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	rows := make([][]string, 0, strings.Count(content, "\n")+1)
	fields := make([]string, 0, 10)
	var current strings.Builder
	inQuotes := false
	fieldWasQuoted := false

	endField := func() {
		fields = append(fields, current.String())
		current.Reset()
		fieldWasQuoted = false
	}
	endRow := func() {
		endField()
		rows = append(rows, fields)
		fields = make([]string, 0, 10)
	}

	for i := 0; i < len(content); {
		r, width := utf8.DecodeRuneInString(content[i:])

		if inQuotes {
			if r == quoteChar {
				// Escaped quote: "" inside a quoted field is a literal quote
				if next, nw := utf8.DecodeRuneInString(content[i+width:]); nw > 0 && next == quoteChar {
					current.WriteRune(quoteChar)
					i += width + nw
					continue
				}
				inQuotes = false
				i += width
				continue
			}
			current.WriteRune(r)
			i += width
			continue
		}

		switch r {
		case quoteChar:
			inQuotes = true
			fieldWasQuoted = true
		case delimiter:
			endField()
		case '\n':
			endRow()
		default:
			current.WriteRune(r)
		}
		i += width
	}

	// Flush the trailing row unless the input ended exactly on a newline
	if current.Len() > 0 || len(fields) > 0 || fieldWasQuoted {
		endRow()
	}

	return rows
}

// SplitLine splits a single CSV line handling quoted fields. Kept for
// callers that already have line-scoped input (e.g. XLSX cell cleanup).
func SplitLine(line string, delimiter rune, quoteChar rune) []string {
	rows := SplitRows(line, delimiter, quoteChar)
	if len(rows) == 0 {
		return []string{""}
	}
	return rows[0]
}
