package core

// tokenize.go splits uploaded text into rows and rows into fields.
//
// Neither function returns an error: a row that cannot be split sensibly
// still yields some fields, and the record builder decides whether they
// are usable.

import "strings"

// SplitRows splits text on newlines and drops rows that are blank after
// trimming. Windows line endings are accepted. The first returned row is
// the header.
func SplitRows(text string) []string {
	lines := strings.Split(text, "\n")
	rows := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
	}
	return rows
}

// SplitFields splits one delimited row on commas outside double quotes.
//
// Quote characters are dropped, a doubled quote inside a quoted field is a
// literal quote, and every field is trimmed. An unbalanced quote swallows
// the rest of the row into one field. Empty fields keep their
// position, so "a.com,,Banking" yields three fields.
func SplitFields(row string) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)

	flush := func() {
		fields = append(fields, strings.TrimSpace(field.String()))
		field.Reset()
	}

	for i := 0; i < len(row); i++ {
		c := row[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(row) && row[i+1] == '"':
			field.WriteByte('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			flush()
		default:
			field.WriteByte(c)
		}
	}
	flush()

	return fields
}

// fieldAt returns fields[i] or "" when the row is short.
func fieldAt(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}
