// Package core provides the bulk domain ingestion pipeline.
//
// This package holds the domain logic of a bulk import, independent of any UI
// or transport layer. The dashboard, the CLI and the tests all drive it the
// same way.
//
// # Pipeline
//
// An import runs these steps in order:
//
//  1. [ReadText] reads the upload, dropping a BOM and repairing bad UTF-8.
//  2. [SplitRows] breaks the text into rows; the first row is the header.
//  3. [DetectFormat] looks at the first data row. A comma selects
//     [FormatMulti] (domain,organization,sector), otherwise [FormatSimple].
//  4. [BuildRecords] produces one [DomainRecord] per usable row. Simple rows
//     are classified with [Categorize]; multi rows carry organization and
//     sector forward from earlier rows.
//  5. The whole record set goes to a [BulkSubmitter] in one call.
//  6. [Reconcile] turns the [BulkResult] into an [Outcome] for the operator.
//
// [Importer] wires these together behind an [UploadGuard] so that only one
// import runs at a time.
//
// # Parsing
//
// Parsing never fails. Blank rows, header-like rows and rows without a domain
// are skipped. Duplicates are kept; the ingestion service decides what is
// already monitored.
//
// # Notifications
//
// Each import produces exactly one [Notification]. Results that include
// malicious rejections never auto-dismiss. Failures are mapped to operator
// messages with [MapError]:
//
//   - FILE001-FILE003: File errors (size, no domains, no file)
//   - UPL001-UPL003: Upload errors (in progress, cancelled, timeout)
//   - SVC001-SVC003: Ingestion service errors
//   - RATE001: Rate limiting
package core
