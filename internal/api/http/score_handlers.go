// Package http exposes the scoring engine over a thin chi layer. The
// upstream extraction agent posts observation lists here; every handler is a
// pure read against the current catalog snapshot.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/edunav/admitscore/internal/catalog"
	"github.com/edunav/admitscore/internal/classify"
	"github.com/edunav/admitscore/internal/formula"
	"github.com/edunav/admitscore/internal/scale"
	"github.com/edunav/admitscore/internal/subject"
)

func subjectTrack(s string) subject.Track {
	return subject.Track(strings.ToLower(strings.TrimSpace(s)))
}

type convertReq struct {
	Observations []scale.Observation `json:"observations"`
}

// POST /convert
func ConvertHandler(h *catalog.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req convertReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		res := h.Current().Converter.Convert(req.Observations)
		_ = json.NewEncoder(w).Encode(res)
	}
}

type scoreReq struct {
	FormulaID    string              `json:"formula_id"`
	Observations []scale.Observation `json:"observations"`
}

type scoreResp struct {
	Composite formula.Composite    `json:"composite"`
	Record    scale.Record         `json:"record"`
	Errors    []scale.SubjectError `json:"errors,omitempty"`
}

// POST /score
func ScoreHandler(h *catalog.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scoreReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.FormulaID) == "" {
			http.Error(w, "formula_id required", http.StatusBadRequest)
			return
		}
		snap := h.Current()
		conv := snap.Converter.Convert(req.Observations)
		comp, err := snap.Formulas.Score(req.FormulaID, conv.Record)
		if err != nil {
			var missing *formula.MissingSubjectError
			switch {
			case errors.Is(err, formula.ErrUnknownFormula):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.As(err, &missing):
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			default:
				http.Error(w, "score: "+err.Error(), http.StatusInternalServerError)
			}
			return
		}
		_ = json.NewEncoder(w).Encode(scoreResp{Composite: comp, Record: conv.Record, Errors: conv.Errors})
	}
}

type searchReq struct {
	Observations []scale.Observation `json:"observations"`
	Filters      searchFilters       `json:"filters"`
}

type searchFilters struct {
	Institutions []string `json:"institutions,omitempty"`
	Departments  []string `json:"departments,omitempty"`
	Group        string   `json:"group,omitempty"`
	Track        string   `json:"track,omitempty"`
	Band         string   `json:"band,omitempty"`
}

type searchResp struct {
	classify.SearchResult
	ConversionErrors []scale.SubjectError `json:"conversion_errors,omitempty"`
}

// POST /search
func SearchHandler(h *catalog.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req searchReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		f := classify.Filters{
			Institutions: req.Filters.Institutions,
			Departments:  req.Filters.Departments,
			Group:        req.Filters.Group,
		}
		if req.Filters.Track != "" {
			f.Track = subjectTrack(req.Filters.Track)
		}
		if req.Filters.Band != "" {
			b, ok := classify.ParseBand(req.Filters.Band)
			if !ok {
				http.Error(w, "unknown band: "+req.Filters.Band, http.StatusBadRequest)
				return
			}
			f.Band = &b
		}
		snap := h.Current()
		conv := snap.Converter.Convert(req.Observations)
		res := snap.Engine.Search(conv.Record, f)
		_ = json.NewEncoder(w).Encode(searchResp{SearchResult: res, ConversionErrors: conv.Errors})
	}
}

// GET /programs
func ListProgramsHandler(h *catalog.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(h.Current().Engine.Programs())
	}
}

// SnapshotLoader rebuilds a snapshot from the configured source.
type SnapshotLoader func(ctx context.Context) (*catalog.Snapshot, error)

// POST /admin/catalog/reload
// Validate-then-swap: a bad bundle leaves the serving snapshot untouched.
func ReloadHandler(h *catalog.Holder, load SnapshotLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := load(r.Context())
		if err != nil {
			log.Printf("catalog reload rejected: %v", err)
			http.Error(w, "reload: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.Swap(snap)
		_ = json.NewEncoder(w).Encode(map[string]any{"version": snap.Version, "year": snap.Year})
	}
}
