package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/cseguard/internal/core"
	"github.com/JonMunkholm/cseguard/internal/ingestclient"
	"github.com/JonMunkholm/cseguard/internal/logging"
	"github.com/JonMunkholm/cseguard/internal/metrics"
	"github.com/JonMunkholm/cseguard/internal/web/views"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and headers.
const multipartOverhead = 1 << 20

// keepAliveInterval is how often an idle event stream gets a comment line.
const keepAliveInterval = 15 * time.Second

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := views.Page(views.PageData{
		Title:       "CSE Domain Monitor",
		MaxFileSize: s.cfg.Upload.MaxFileSize,
	})
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render dashboard failed", "error", err)
	}
}

// handleImport runs the bulk import for an uploaded file. The importer sends
// its own notification; the response repeats the outcome for the caller.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	file, header, err := s.formFile(w, r)
	if err != nil {
		metrics.ObserveImport(metrics.ResultFailed, 0, time.Since(start))
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer file.Close()

	report, err := s.importer.Import(r.Context(), header.Filename, file)
	if err != nil {
		result := metrics.ResultFailed
		if errors.Is(err, core.ErrUploadInProgress) {
			result = metrics.ResultRejected
		}
		metrics.ObserveImport(result, 0, time.Since(start))
		s.respondError(w, r, err, statusFor(err))
		return
	}
	metrics.ObserveImport(metrics.ResultSuccess, len(report.Records), time.Since(start))

	w.Header().Set("HX-Trigger", "domains-changed")
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := views.ImportResult(report).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render import result failed", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handlePreview parses an uploaded file and returns the records an import
// would submit, without contacting the ingestion service.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	file, _, err := s.formFile(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer file.Close()

	records, format, err := s.importer.Preview(file)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if records == nil {
		records = []core.DomainRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"format":  format,
		"count":   len(records),
		"records": records,
	})
}

// formFile extracts the "file" part of a multipart upload.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	if maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
		}
		return nil, nil, fmt.Errorf("%w: %v", errNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, errNoFile
	}
	return file, header, nil
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.importer.Guard().Status())
}

// handleImportHistory lists recent imports, newest first.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.importer.History().Recent())
}

// handleEvents streams import notifications via Server-Sent Events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	events, cancel := s.events.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case n, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				logging.FromContext(r.Context()).Error("encode notification failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: notification\nid: %s\ndata: %s\n\n", n.ImportID, data)
			flusher.Flush()

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleListDomains proxies the domain list.
// Query: skip, limit, include_inactive.
func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := ingestclient.ListOptions{
		Skip:            atoiOr(q.Get("skip"), 0),
		Limit:           atoiOr(q.Get("limit"), 0),
		IncludeInactive: q.Get("include_inactive") == "true",
	}

	domains, err := s.domains.ListDomains(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if domains == nil {
		domains = []core.CSEDomain{}
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := views.DomainTable(domains).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render domain table failed", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, domains)
}

// handleAddDomain proxies a single add. It accepts JSON or a form post.
func (s *Server) handleAddDomain(w http.ResponseWriter, r *http.Request) {
	var rec core.DomainRecord
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&rec); err != nil {
			s.respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
			return
		}
	} else {
		rec = core.DomainRecord{
			Domain:           r.FormValue("domain"),
			OrganizationName: r.FormValue("organization_name"),
			Sector:           r.FormValue("sector"),
		}
	}

	d, err := s.domains.AddDomain(r.Context(), rec)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("HX-Trigger", "domains-changed")
	writeJSON(w, http.StatusOK, d)
}

// handleDeleteDomain proxies a deactivation.
func (s *Server) handleDeleteDomain(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		s.respondError(w, r, fmt.Errorf("invalid domain id %q", chi.URLParam(r, "id")), http.StatusBadRequest)
		return
	}

	if err := s.domains.DeleteDomain(r.Context(), id); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if isHTMX(r) {
		// Empty body swaps the row out of the table.
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Domain deactivated successfully"})
}

// handleHealth reports the dashboard and its view of the ingestion service.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]any{
		"status":  "ok",
		"ingest":  "ok",
		"import":  s.importer.Guard().State(),
		"streams": s.events.Subscribers(),
	}
	if err := s.domains.Health(ctx); err != nil {
		logging.FromContext(r.Context()).Warn("ingestion service health check failed", "error", err)
		status["ingest"] = "unreachable"
	}
	writeJSON(w, http.StatusOK, status)
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
