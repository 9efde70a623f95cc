package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/cseguard/internal/config"
	"github.com/JonMunkholm/cseguard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSubmitter struct {
	records []core.DomainRecord
	result  core.BulkResult
	err     error
}

func (s *stubSubmitter) SubmitBulk(_ context.Context, records []core.DomainRecord) (core.BulkResult, error) {
	s.records = records
	return s.result, s.err
}

// run executes the root command with args and resets per-command flags.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	parseJSON, uploadJSON = false, false
	t.Cleanup(func() {
		parseJSON, uploadJSON = false, false
		rootCmd.SetArgs(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cse.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func useSubmitter(t *testing.T, s core.BulkSubmitter) {
	t.Helper()
	orig := newSubmitter
	newSubmitter = func() core.BulkSubmitter { return s }
	t.Cleanup(func() { newSubmitter = orig })
}

func TestVersionCmd_Executes(t *testing.T) {
	orig := version
	SetVersion("1.2.3")
	defer func() { version = orig }()

	out, err := run(t, "version")
	assert.NoError(t, err)
	assert.Contains(t, out, "cseimport version 1.2.3")
}

func TestCategorizeCmd(t *testing.T) {
	out, err := run(t, "categorize", "sbi.co.in", "nic.in", "randomsite.xyz")
	require.NoError(t, err)

	assert.Contains(t, out, "Banking/Financial Services")
	assert.Contains(t, out, "Government of India")
	assert.Contains(t, out, "Unknown Organization")
}

func TestCategorizeCmd_RequiresArgs(t *testing.T) {
	_, err := run(t, "categorize")
	assert.Error(t, err)
}

func TestParseCmd_Table(t *testing.T) {
	path := writeFile(t, "Domain,Organization,Sector\nsbi.co.in,State Bank of India,BFSI\nonlinesbi.sbi,,\n")

	out, err := run(t, "parse", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Format: multi, 2 records")
	assert.Contains(t, out, "onlinesbi.sbi")
	assert.Contains(t, out, "State Bank of India")
}

func TestParseCmd_JSON(t *testing.T) {
	path := writeFile(t, "Domain\nkrausey.com\n")

	out, err := run(t, "parse", "--json", path)
	require.NoError(t, err)

	assert.Contains(t, out, `"format": "simple"`)
	assert.Contains(t, out, `"organization_name": "Unknown Organization"`)
}

func TestParseCmd_Empty(t *testing.T) {
	out, err := run(t, "parse", writeFile(t, "Domain\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "No valid domains found.")
}

func TestParseCmd_MissingFile(t *testing.T) {
	_, err := run(t, "parse", filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorContains(t, err, "open input")
}

func TestUploadCmd(t *testing.T) {
	stub := &stubSubmitter{result: core.BulkResult{
		TotalAdded:      1,
		SkippedExisting: []string{"sbi.co.in"},
	}}
	useSubmitter(t, stub)

	out, err := run(t, "upload", writeFile(t, "Domain\nsbi.co.in\nkrausey.com\n"))
	require.NoError(t, err)

	require.Len(t, stub.records, 2)
	assert.Contains(t, out, "cse.csv: 2 records (simple format)")
	assert.Contains(t, out, "Added 1 domain.")
	assert.Contains(t, out, "Skipped 1 already monitored: sbi.co.in.")
	assert.NotContains(t, out, "Review the rejected domains")
}

func TestUploadCmd_MaliciousHint(t *testing.T) {
	useSubmitter(t, &stubSubmitter{result: core.BulkResult{
		SkippedMalicious: core.MaliciousSkips{Count: 1},
	}})

	out, err := run(t, "upload", writeFile(t, "Domain\nsbii.co.in\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "Rejected 1 as malicious")
	assert.Contains(t, out, "Review the rejected domains")
}

func TestUploadCmd_Failure(t *testing.T) {
	useSubmitter(t, &stubSubmitter{err: errors.New("dial tcp: connection refused")})

	_, err := run(t, "upload", writeFile(t, "Domain\na.com\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Code: SVC001")
}

func TestUploadCmd_NoRecords(t *testing.T) {
	stub := &stubSubmitter{}
	useSubmitter(t, stub)

	_, err := run(t, "upload", writeFile(t, "Domain\n\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FILE002")
	assert.Nil(t, stub.records, "nothing should be submitted")
}

func TestSetDefaults(t *testing.T) {
	origURL, origKey := serviceURL, apiKey
	defer func() { serviceURL, apiKey = origURL, origKey }()

	SetDefaults(&config.Config{
		Ingest: config.IngestConfig{ServiceURL: "http://ingest:9000", APIKey: "k"},
		Upload: config.UploadConfig{MaxFileSize: 1024},
	})
	assert.Equal(t, "http://ingest:9000", serviceURL)
	assert.Equal(t, "k", apiKey)
	assert.Equal(t, int64(1024), maxFileSize)

	maxFileSize = core.DefaultMaxFileSize
}
