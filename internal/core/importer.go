package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/cseguard/internal/logging"
	"github.com/google/uuid"
)

// ErrNoRecords is returned when a file yields no usable domain.
var ErrNoRecords = errors.New("no valid domains found in file")

// BulkSubmitter sends a whole record set to the ingestion service in one call.
type BulkSubmitter interface {
	SubmitBulk(ctx context.Context, records []DomainRecord) (BulkResult, error)
}

// Notification is an operator-facing toast.
type Notification struct {
	ImportID     string     `json:"import_id,omitempty"`
	Level        Level      `json:"level"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	AutoDismiss  bool       `json:"auto_dismiss"`
	DismissAfter DurationMS `json:"dismiss_after_ms"`
	Time         time.Time  `json:"time"`
}

// Notifier receives notifications produced by an import. It is called
// synchronously from Import and must not block for long.
type Notifier func(Notification)

// ImporterConfig tunes an Importer.
type ImporterConfig struct {
	MaxFileSize  int64         // upload size limit, 0 for DefaultMaxFileSize
	DismissAfter time.Duration // auto-dismiss delay, 0 for DefaultDismissDelay
	HistorySize  int           // imports kept in History, 0 for DefaultHistorySize
}

// Importer runs the bulk ingestion pipeline: read, parse, submit, reconcile.
type Importer struct {
	submitter BulkSubmitter
	notify    Notifier
	guard     *UploadGuard
	history   *History
	cfg       ImporterConfig
}

// NewImporter creates an Importer. notify may be nil.
func NewImporter(submitter BulkSubmitter, notify Notifier, cfg ImporterConfig) *Importer {
	if notify == nil {
		notify = func(Notification) {}
	}
	if cfg.DismissAfter <= 0 {
		cfg.DismissAfter = DefaultDismissDelay
	}
	return &Importer{
		submitter: submitter,
		notify:    notify,
		guard:     NewUploadGuard(),
		history:   NewHistory(cfg.HistorySize),
		cfg:       cfg,
	}
}

// Guard exposes the single-flight guard for status reporting and shutdown.
func (im *Importer) Guard() *UploadGuard {
	return im.guard
}

// History returns the log of recent imports.
func (im *Importer) History() *History {
	return im.history
}

// ImportReport describes one completed import.
type ImportReport struct {
	ImportID string         `json:"import_id"`
	FileName string         `json:"file_name"`
	Format   Format         `json:"format"`
	Records  []DomainRecord `json:"records"`
	Outcome  Outcome        `json:"outcome"`
	Duration DurationMS     `json:"duration_ms"`
}

// Preview parses an upload without submitting it.
func (im *Importer) Preview(r io.Reader) ([]DomainRecord, Format, error) {
	text, err := ReadText(r, im.cfg.MaxFileSize)
	if err != nil {
		return nil, "", err
	}
	records, format := ParseRecords(text)
	return records, format, nil
}

// Import reads r, parses it, submits every record in a single batch and
// reconciles the service's answer. Only one Import runs at a time; a
// concurrent call fails with ErrUploadInProgress without touching r.
//
// Parse problems never fail the import: bad rows are dropped. A transport
// or service failure fails the whole batch and is not retried.
func (im *Importer) Import(ctx context.Context, fileName string, r io.Reader) (*ImportReport, error) {
	importID := uuid.New().String()
	logger := logging.WithFields(ctx, "import_id", importID, "file", fileName)
	start := time.Now()

	if !im.guard.TryAcquire(importID, fileName) {
		logger.Warn("import rejected, another upload is running")
		im.fail(importID, fileName, start, 0, ErrUploadInProgress)
		return nil, ErrUploadInProgress
	}
	defer im.guard.Release()

	text, err := ReadText(r, im.cfg.MaxFileSize)
	if err != nil {
		logger.Error("read upload failed", "error", err)
		im.fail(importID, fileName, start, 0, err)
		return nil, err
	}

	records, format := ParseRecords(text)
	logger.Info("upload parsed", "format", format, "records", len(records))

	if len(records) == 0 {
		im.fail(importID, fileName, start, 0, ErrNoRecords)
		return nil, ErrNoRecords
	}

	result, err := im.submitter.SubmitBulk(ctx, records)
	if err != nil {
		logger.Error("bulk submission failed", "error", err, "records", len(records))
		im.fail(importID, fileName, start, len(records), err)
		return nil, fmt.Errorf("submit %d domains: %w", len(records), err)
	}

	outcome := Reconcile(result, im.cfg.DismissAfter)
	logger.Info("bulk submission reconciled",
		"accepted", outcome.Accepted,
		"skipped_existing", len(outcome.SkippedExisting),
		"skipped_malicious", outcome.MaliciousCount,
		"auto_dismiss", outcome.AutoDismiss,
	)

	im.notify(Notification{
		ImportID:     importID,
		Level:        outcome.Level,
		Title:        "Bulk upload complete",
		Message:      outcome.Message,
		AutoDismiss:  outcome.AutoDismiss,
		DismissAfter: outcome.DismissAfter,
		Time:         time.Now(),
	})

	report := &ImportReport{
		ImportID: importID,
		FileName: fileName,
		Format:   format,
		Records:  records,
		Outcome:  outcome,
		Duration: DurationMS(time.Since(start)),
	}
	im.history.Add(HistoryEntry{
		ImportID:         importID,
		FileName:         fileName,
		Started:          start,
		Duration:         report.Duration,
		Records:          len(records),
		Accepted:         outcome.Accepted,
		SkippedExisting:  len(outcome.SkippedExisting),
		SkippedMalicious: outcome.MaliciousCount,
		Level:            outcome.Level,
	})

	return report, nil
}

// fail records a failed import and sends its single failure toast.
// Failures never auto-dismiss.
func (im *Importer) fail(importID, fileName string, start time.Time, records int, err error) {
	im.history.Add(HistoryEntry{
		ImportID: importID,
		FileName: fileName,
		Started:  start,
		Duration: DurationMS(time.Since(start)),
		Records:  records,
		Level:    LevelError,
		Error:    FormatUserError(err),
	})
	im.notify(Notification{
		ImportID: importID,
		Level:    LevelError,
		Title:    "Bulk upload failed",
		Message:  FormatUserError(err),
		Time:     time.Now(),
	})
}
