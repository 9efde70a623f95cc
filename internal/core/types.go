package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Unknown is the placeholder used when no organization or sector can be resolved.
const Unknown = "Unknown"

// DomainRecord is the unit of ingestion: one domain to protect.
type DomainRecord struct {
	Domain           string `json:"domain"`
	OrganizationName string `json:"organization_name"`
	Sector           string `json:"sector"`
}

// CSEDomain is a monitored domain as stored by the ingestion service.
type CSEDomain struct {
	ID               int64     `json:"id"`
	Domain           string    `json:"domain"`
	OrganizationName string    `json:"organization_name"`
	Sector           string    `json:"sector"`
	AddedAt          time.Time `json:"added_at"`
	IsActive         bool      `json:"is_active"`
}

// Record returns the ingestion fields of d.
func (d CSEDomain) Record() DomainRecord {
	return DomainRecord{Domain: d.Domain, OrganizationName: d.OrganizationName, Sector: d.Sector}
}

// BulkRequest is the body of a batch submission.
type BulkRequest struct {
	Domains []DomainRecord `json:"domains"`
}

// BulkResult is the structured answer to one batch submission.
type BulkResult struct {
	Added            []CSEDomain    `json:"added"`
	SkippedExisting  []string       `json:"skipped_existing"`
	SkippedMalicious MaliciousSkips `json:"skipped_malicious"`
	TotalAdded       int            `json:"total_added"`
	TotalSkipped     int            `json:"total_skipped"`
	Message          string         `json:"message"`
}

// AcceptedCount returns how many records the service accepted.
// Older services only send the list, newer ones only the count.
func (r BulkResult) AcceptedCount() int {
	if len(r.Added) > r.TotalAdded {
		return len(r.Added)
	}
	return r.TotalAdded
}

// MaliciousSkip is one domain rejected by the service's own screening.
type MaliciousSkip struct {
	Domain string `json:"domain"`
	Reason string `json:"reason,omitempty"`
}

// MaliciousSkips holds the skipped_malicious field, which the service may
// send as a count, a list of domains, or a list of {domain, reason} objects.
type MaliciousSkips struct {
	Entries []MaliciousSkip
	Count   int
}

// Len returns the number of rejected domains, whichever form was received.
func (m MaliciousSkips) Len() int {
	if len(m.Entries) > m.Count {
		return len(m.Entries)
	}
	return m.Count
}

// Domains returns the rejected domain names in service order.
func (m MaliciousSkips) Domains() []string {
	out := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, e.Domain)
	}
	return out
}

// MarshalJSON always emits the list form.
func (m MaliciousSkips) MarshalJSON() ([]byte, error) {
	if m.Entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m.Entries)
}

// UnmarshalJSON accepts null, a number, a string array or an object array.
func (m *MaliciousSkips) UnmarshalJSON(data []byte) error {
	*m = MaliciousSkips{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("skipped_malicious: %w", err)
		}
		for _, item := range raw {
			var name string
			if err := json.Unmarshal(item, &name); err == nil {
				m.Entries = append(m.Entries, MaliciousSkip{Domain: name})
				continue
			}
			var entry MaliciousSkip
			if err := json.Unmarshal(item, &entry); err != nil {
				return fmt.Errorf("skipped_malicious entry: %w", err)
			}
			m.Entries = append(m.Entries, entry)
		}
		m.Count = len(m.Entries)
		return nil
	default:
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("skipped_malicious: %w", err)
		}
		m.Count = n
		return nil
	}
}

// DurationMS is a time.Duration that encodes as whole milliseconds in JSON.
type DurationMS time.Duration

// Duration returns d as a time.Duration.
func (d DurationMS) Duration() time.Duration { return time.Duration(d) }

func (d DurationMS) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

func (d *DurationMS) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	*d = DurationMS(time.Duration(ms) * time.Millisecond)
	return nil
}
