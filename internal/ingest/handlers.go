package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/cseguard/internal/core"
	"github.com/JonMunkholm/cseguard/internal/logging"
	"github.com/JonMunkholm/cseguard/internal/metrics"
	"github.com/JonMunkholm/cseguard/internal/screen"
	"github.com/JonMunkholm/cseguard/internal/store"
	"github.com/go-chi/chi/v5"
)

// maxListLimit caps a single page of the domain list.
const maxListLimit = 1000

// handleListDomains returns active domains newest first.
// Query: skip (default 0), limit (default 50), active_only (default true).
func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	skip, err := intParam(q.Get("skip"), 0)
	if err != nil || skip < 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "skip must be a non-negative integer")
		return
	}
	limit, err := intParam(q.Get("limit"), store.DefaultLimit)
	if err != nil || limit < 1 || limit > maxListLimit {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("limit must be between 1 and %d", maxListLimit))
		return
	}
	activeOnly := true
	if v := q.Get("active_only"); v != "" {
		activeOnly, err = strconv.ParseBool(v)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "active_only must be a boolean")
			return
		}
	}

	domains, err := s.store.List(r.Context(), store.ListParams{Offset: skip, Limit: limit, ActiveOnly: activeOnly})
	if err != nil {
		logging.FromContext(r.Context()).Error("list domains failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, domains)
}

// handleAddDomain adds one domain. Screening runs before the duplicate check
// so a lookalike is reported as such even when it was added before.
func (s *Server) handleAddDomain(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var rec core.DomainRecord
	if err := decodeBody(w, r, &rec); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	rec = trimRecord(rec)
	if rec.Domain == "" || rec.OrganizationName == "" || rec.Sector == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "domain, organization_name and sector are required")
		return
	}

	if s.screener != nil {
		active, err := s.store.ActiveDomains(r.Context())
		if err != nil {
			logger.Error("load active domains failed", "error", err)
			writeDetail(w, http.StatusInternalServerError, "Error: "+err.Error())
			return
		}
		if v := s.screener.Check(rec.Domain, active); v.Malicious {
			logger.Warn("domain rejected by screening", "domain", rec.Domain, "reason", v.Reason)
			writeDetail(w, http.StatusBadRequest, rejectionDetail(rec.Domain, v))
			return
		}
	}

	d, err := s.store.Add(r.Context(), rec)
	switch {
	case errors.Is(err, store.ErrAlreadyMonitored):
		writeDetail(w, http.StatusBadRequest, "This domain is already being monitored")
		return
	case errors.Is(err, store.ErrPreviouslyRemoved):
		writeDetail(w, http.StatusBadRequest,
			"This domain was previously removed from monitoring and cannot be re-added. "+
				"If this is a legitimate domain, please contact the administrator.")
		return
	case err != nil:
		logger.Error("add domain failed", "domain", rec.Domain, "error", err)
		writeDetail(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	metrics.ObserveBulkAdd(1, 0, 0)
	logger.Info("domain added", "id", d.ID, "domain", d.Domain)
	writeJSON(w, http.StatusOK, d)
}

// handleBulkAdd adds every new domain of a batch in one transaction.
// Stored names and repeats within the batch land in skipped_existing;
// screening rejections land in skipped_malicious.
func (s *Server) handleBulkAdd(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req core.BulkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	clean := make([]core.DomainRecord, 0, len(req.Domains))
	var rejected []core.MaliciousSkip

	var active []string
	screening := s.screener != nil && s.cfg.Screen.BulkEnabled
	if screening {
		var err error
		active, err = s.store.ActiveDomains(r.Context())
		if err != nil {
			logger.Error("load active domains failed", "error", err)
			writeDetail(w, http.StatusInternalServerError, "Error: "+err.Error())
			return
		}
	}

	for _, rec := range req.Domains {
		rec = trimRecord(rec)
		if rec.Domain == "" {
			continue
		}
		if screening {
			if v := s.screener.Check(rec.Domain, active); v.Malicious {
				rejected = append(rejected, core.MaliciousSkip{Domain: rec.Domain, Reason: v.Reason})
				continue
			}
		}
		clean = append(clean, rec)
	}

	added, skipped, err := s.store.BulkAdd(r.Context(), clean)
	if err != nil {
		logger.Error("bulk add failed", "records", len(clean), "error", err)
		writeDetail(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	metrics.ObserveBulkAdd(len(added), len(skipped), len(rejected))
	logger.Info("bulk add complete",
		"received", len(req.Domains),
		"added", len(added),
		"skipped_existing", len(skipped),
		"skipped_malicious", len(rejected),
	)

	writeJSON(w, http.StatusOK, core.BulkResult{
		Added:            added,
		SkippedExisting:  skipped,
		SkippedMalicious: core.MaliciousSkips{Entries: rejected},
		TotalAdded:       len(added),
		TotalSkipped:     len(skipped) + len(rejected),
		Message:          bulkMessage(len(added), screening),
	})
}

// handleDeleteDomain deactivates a domain. The row is kept so the name
// cannot be re-added through the single-add path.
func (s *Server) handleDeleteDomain(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "id must be an integer")
		return
	}

	err = s.store.Deactivate(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Domain not found")
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("deactivate failed", "id", id, "error", err)
		writeDetail(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	logging.FromContext(r.Context()).Info("domain deactivated", "id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Domain deactivated successfully"})
}

func rejectionDetail(domain string, v screen.Verdict) string {
	if v.Target != "" {
		return fmt.Sprintf("TYPOSQUATTING DETECTED: the domain '%s' appears to be a typosquatting variant of '%s'. "+
			"It cannot be added because it mimics an existing legitimate domain. "+
			"If you believe this is an error, please verify the correct domain spelling.", domain, v.Target)
	}
	return fmt.Sprintf("The domain '%s' cannot be added: %s", domain, v.Reason)
}

// bulkMessage describes a bulk add. Without upload-time screening every
// accepted name is scanned once monitoring starts.
func bulkMessage(added int, screened bool) string {
	if screened {
		return fmt.Sprintf("Successfully added %d domains (screened for lookalikes and blocklisted names on upload)", added)
	}
	return fmt.Sprintf("Successfully added %d domains (scanning will happen when monitoring starts)", added)
}

// trimRecord trims every field and lowercases the domain. Domain names
// compare case-insensitively everywhere in the service.
func trimRecord(rec core.DomainRecord) core.DomainRecord {
	rec.Domain = strings.ToLower(strings.TrimSpace(rec.Domain))
	rec.OrganizationName = strings.TrimSpace(rec.OrganizationName)
	rec.Sector = strings.TrimSpace(rec.Sector)
	return rec
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// maxBodyBytes bounds a JSON request. A bulk body is a few times larger than
// the file it came from.
const maxBodyBytes = 64 << 20

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
