package core

import "strings"

// Format is the detected shape of an uploaded file.
type Format string

const (
	// FormatSimple is one domain per line with no metadata.
	FormatSimple Format = "simple"
	// FormatMulti is domain,organization_name,sector per line.
	FormatMulti Format = "multi"
)

// DetectFormat decides the file shape from its first data row.
// A comma anywhere in that row means structured input.
func DetectFormat(firstDataRow string) Format {
	if strings.Contains(firstDataRow, ",") {
		return FormatMulti
	}
	return FormatSimple
}

// carryForward remembers the last non-blank organization and sector seen
// in a multi-column file. It lives for exactly one parse pass.
type carryForward struct {
	sector string
	org    string
}

// observe records any non-blank values from the current row.
func (c *carryForward) observe(org, sector string) {
	if sector != "" {
		c.sector = sector
	}
	if org != "" {
		c.org = org
	}
}

// resolve returns v, else the carried value, else Unknown.
func resolve(v, carried string) string {
	if v != "" {
		return v
	}
	if carried != "" {
		return carried
	}
	return Unknown
}

// ParseRecords runs the full parse: split rows, detect the format from the
// first data row, and build records. It never fails; unusable rows are dropped.
func ParseRecords(text string) ([]DomainRecord, Format) {
	rows := SplitRows(text)
	if len(rows) < 2 {
		return []DomainRecord{}, FormatSimple
	}
	format := DetectFormat(rows[1])
	return BuildRecords(rows, format), format
}

// BuildRecords converts rows into records under format. rows[0] is the
// header and never produces a record. Rows mentioning "domain" or "user"
// anywhere are treated as stray headers and skipped. Duplicates are kept;
// deduplication is the ingestion service's job.
func BuildRecords(rows []string, format Format) []DomainRecord {
	records := make([]DomainRecord, 0, len(rows))
	var carry carryForward

	for i, row := range rows {
		if i == 0 || isHeaderLike(row) {
			continue
		}

		trimmed := strings.TrimSpace(row)
		if trimmed == "" {
			continue
		}

		if format == FormatSimple {
			sector, org := Categorize(trimmed)
			records = append(records, DomainRecord{
				Domain:           trimmed,
				OrganizationName: org,
				Sector:           sector,
			})
			continue
		}

		fields := SplitFields(trimmed)
		domain := fieldAt(fields, 0)
		org := fieldAt(fields, 1)
		sector := fieldAt(fields, 2)

		// Carry-forward sees every row, including ones dropped below.
		carry.observe(org, sector)

		if domain == "" || strings.Contains(strings.ToLower(domain), "domain") {
			continue
		}

		records = append(records, DomainRecord{
			Domain:           domain,
			OrganizationName: resolve(org, carry.org),
			Sector:           resolve(sector, carry.sector),
		})
	}

	return records
}

func isHeaderLike(row string) bool {
	lower := strings.ToLower(row)
	return strings.Contains(lower, "domain") || strings.Contains(lower, "user")
}
