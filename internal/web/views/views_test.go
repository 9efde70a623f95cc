package views

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/cseguard/internal/core"
	"github.com/a-h/templ"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return b.String()
}

func TestErrorAlert_Escapes(t *testing.T) {
	got := render(t, ErrorAlert("<script>x</script>", "", "ERR000"))
	if strings.Contains(got, "<script>") {
		t.Errorf("message not escaped: %s", got)
	}
	if strings.Contains(got, "alert-action") {
		t.Errorf("empty action rendered: %s", got)
	}
}

func TestImportResult_DismissMarkers(t *testing.T) {
	clean := &core.ImportReport{
		ImportID: "id-1",
		FileName: "cse.csv",
		Format:   core.FormatSimple,
		Records:  []core.DomainRecord{{Domain: "a.com"}},
		Outcome:  core.Reconcile(core.BulkResult{TotalAdded: 1}, 2*time.Second),
	}
	got := render(t, ImportResult(clean))
	if !strings.Contains(got, `data-dismiss-after="2000"`) {
		t.Errorf("clean result missing dismiss timer: %s", got)
	}
	if !strings.Contains(got, "1 record read as simple") {
		t.Errorf("summary missing: %s", got)
	}

	flagged := &core.ImportReport{
		ImportID: "id-2",
		FileName: "cse.csv",
		Outcome: core.Reconcile(core.BulkResult{
			SkippedMalicious: core.MaliciousSkips{Entries: []core.MaliciousSkip{{Domain: "evil.tk"}}},
		}, 0),
	}
	got = render(t, ImportResult(flagged))
	if strings.Contains(got, "data-dismiss-after") {
		t.Errorf("malicious result has a dismiss timer: %s", got)
	}
	if !strings.Contains(got, "<li>evil.tk</li>") || !strings.Contains(got, "result-close") {
		t.Errorf("malicious result missing list or close button: %s", got)
	}
}

func TestDomainTable(t *testing.T) {
	got := render(t, DomainTable(nil))
	if !strings.Contains(got, "No domains monitored yet.") {
		t.Errorf("empty table: %s", got)
	}

	got = render(t, DomainTable([]core.CSEDomain{
		{ID: 7, Domain: "a.com", IsActive: true},
		{ID: 8, Domain: "b.com"},
	}))
	if !strings.Contains(got, `hx-delete="/api/cse-domains/7"`) {
		t.Errorf("active row missing remove button: %s", got)
	}
	if strings.Contains(got, `hx-delete="/api/cse-domains/8"`) {
		t.Errorf("inactive row has remove button: %s", got)
	}
}

func TestDomainTable_Escapes(t *testing.T) {
	got := render(t, DomainTable([]core.CSEDomain{
		{ID: 3, Domain: "a.com", OrganizationName: "<b>Org</b>", Sector: "BFSI", IsActive: true},
	}))
	if strings.Contains(got, "<b>Org</b>") {
		t.Errorf("organization not escaped: %s", got)
	}
	if !strings.Contains(got, `hx-target="#domain-3"`) || !strings.Contains(got, `<tr id="domain-3">`) {
		t.Errorf("row id and remove target disagree: %s", got)
	}
}

func TestPage_DismissesSwappedResults(t *testing.T) {
	got := render(t, Page(PageData{Title: "CSE Domains", MaxFileSize: 10 << 20}))
	if !strings.Contains(got, `id="import-result"`) {
		t.Fatalf("page missing import result target: %s", got)
	}
	if !strings.Contains(got, "htmx:afterSwap") || !strings.Contains(got, "[data-dismiss-after]") {
		t.Error("page script does not act on data-dismiss-after")
	}
	if !strings.Contains(got, "Limit 10.0 MB.") {
		t.Error("page missing file size hint")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:        "unlimited",
		512:      "512 bytes",
		2048:     "2.0 KB",
		10485760: "10.0 MB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
