package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/sympol2d/internal/db"
	"github.com/banshee-data/sympol2d/internal/httputil"
	"github.com/banshee-data/sympol2d/internal/material"
	"github.com/banshee-data/sympol2d/internal/monitoring"
	"github.com/banshee-data/sympol2d/internal/report"
	"github.com/banshee-data/sympol2d/internal/stacking"
	"github.com/banshee-data/sympol2d/internal/symmetry"
)

const (
	defaultMaterialLimit = 50
	mapPNGSize           = 6 * vg.Inch
)

// errorStatus maps domain errors onto HTTP statuses.
var errorStatus = []httputil.StatusRule{
	{Target: symmetry.ErrUnknownLayerGroup, Status: http.StatusNotFound},
	{Target: material.ErrMaterialNotFound, Status: http.StatusNotFound},
	{Target: db.ErrRunNotFound, Status: http.StatusNotFound},
	{Target: stacking.ErrInvalidGridSize, Status: http.StatusBadRequest},
	{Target: stacking.ErrUnknownDirection, Status: http.StatusBadRequest},
	{Target: context.DeadlineExceeded, Status: http.StatusGatewayTimeout, Msg: "scan timed out"},
}

var (
	errNoMaterials = httputil.Errorf(http.StatusServiceUnavailable, "material database not configured")
	errNoResults   = httputil.Errorf(http.StatusServiceUnavailable, "results store not configured")
)

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err, errorStatus...)
}

// scanRequest is the parsed query of /api/scan and the map routes.
type scanRequest struct {
	label     string
	grid      int
	top       int
	direction stacking.PolarLabel
	material  *material.Material
	save      bool
}

func (s *Server) parseScanRequest(r *http.Request) (scanRequest, error) {
	q := r.URL.Query()
	req := scanRequest{label: q.Get("layer_group")}

	if uid := q.Get("uid"); uid != "" {
		if s.materials == nil {
			return req, errNoMaterials
		}
		m, err := s.materials.MaterialByUID(uid)
		if err != nil {
			return req, err
		}
		req.material = m
		if req.label == "" {
			req.label = m.LayerGroup
		}
	}
	if req.label == "" {
		return req, httputil.Errorf(http.StatusBadRequest, "layer_group or uid is required")
	}

	var err error
	if req.grid, err = httputil.QueryInt(r, "grid", s.defaultGrid); err != nil {
		return req, err
	}
	if req.top, err = httputil.QueryInt(r, "top", s.topPairs); err != nil {
		return req, err
	}
	if d := q.Get("direction"); d != "" {
		if req.direction, err = stacking.ParseDirection(d); err != nil {
			return req, err
		}
	}
	if v := q.Get("save"); v != "" {
		if req.save, err = strconv.ParseBool(v); err != nil {
			return req, httputil.Errorf(http.StatusBadRequest, "invalid save: must be a boolean")
		}
		if req.save && s.results == nil {
			return req, errNoResults
		}
	}
	return req, nil
}

// runScan scans under the server's scan timeout.
func (s *Server) runScan(ctx context.Context, req scanRequest) (*stacking.ScanResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.scanner.Scan(ctx, req.label, req.grid, s.catalog)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	req, err := s.parseScanRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.runScan(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	opts := report.Options{Material: req.material, Top: req.top, Direction: req.direction}
	if req.material != nil {
		opts.InterlayerDistance = material.EstimateInterlayerDistance(req.material.Numbers)
	}
	rec := report.NewRecord(res, opts)
	if req.save {
		id, err := s.results.SaveRun(rec)
		if err != nil {
			writeError(w, err)
			return
		}
		monitoring.Debugf("saved run %s (%s, N=%d)", id, rec.LayerGroup, rec.GridSize)
	}
	httputil.WriteJSONOK(w, rec)
}

// groupInfo is one /api/groups entry.
type groupInfo struct {
	Label             string   `json:"label"`
	Operations        []string `json:"operations"`
	ZSignFlipExpected *bool    `json:"z_sign_flip_expected,omitempty"`
	// Classes are the labels a scan of this group can assign, in
	// classification order.
	Classes    []string `json:"classes"`
	Advisories []string `json:"advisories,omitempty"`
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	cat := s.catalog.Catalog()
	out := make([]groupInfo, 0, cat.Len())
	for _, label := range cat.Labels() {
		g, err := cat.Group(label)
		if err != nil {
			writeError(w, err)
			return
		}
		info := groupInfo{Label: g.Label, Operations: g.OperationNames()}
		flip := g.ZSignFlip
		info.ZSignFlipExpected = &flip
		for _, l := range stacking.NewClassifier(info.Operations).RuleLabels() {
			info.Classes = append(info.Classes, string(l))
		}
		for _, adv := range g.Degenerate() {
			info.Advisories = append(info.Advisories, adv.Error())
		}
		out = append(out, info)
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.catalog.Snapshot())
}

func (s *Server) handleCatalogReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	res, err := s.catalog.Reload()
	if err != nil {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	httputil.WriteJSONOK(w, res)
}

func (s *Server) handleMaterials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.materials == nil {
		writeError(w, errNoMaterials)
		return
	}
	limit, err := httputil.QueryInt(r, "limit", defaultMaterialLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	hits, err := s.materials.Search(q.Get("formula"), q.Get("layer_group"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSONOK(w, hits)
}

func (s *Server) requireResults(w http.ResponseWriter) bool {
	if s.results == nil {
		writeError(w, errNoResults)
		return false
	}
	return true
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireResults(w) {
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 20)
	if err != nil {
		writeError(w, err)
		return
	}
	runs, err := s.results.ListRuns(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireResults(w) {
		return
	}
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		rec, err := s.results.Run(id)
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteJSONOK(w, rec)
	case http.MethodDelete:
		if err := s.results.DeleteRun(id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handleRunPairs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireResults(w) {
		return
	}
	direction := r.URL.Query().Get("direction")
	if direction != "" {
		d, err := stacking.ParseDirection(direction)
		if err != nil {
			writeError(w, err)
			return
		}
		direction = d.Short()
	}
	pairs, err := s.results.RunPairs(r.PathValue("id"), direction)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSONOK(w, pairs)
}

func (s *Server) handleMapHTML(w http.ResponseWriter, r *http.Request) {
	s.serveMap(w, r, "text/html; charset=utf-8", func(buf *bytes.Buffer, res *stacking.ScanResult) error {
		return report.WriteMapHTML(buf, res)
	})
}

func (s *Server) handleMapPNG(w http.ResponseWriter, r *http.Request) {
	s.serveMap(w, r, "image/png", func(buf *bytes.Buffer, res *stacking.ScanResult) error {
		return report.WriteMapPNG(buf, res, mapPNGSize)
	})
}

// serveMap scans and renders into a buffer first so a render failure can
// still produce a JSON error.
func (s *Server) serveMap(w http.ResponseWriter, r *http.Request, contentType string, render func(*bytes.Buffer, *stacking.ScanResult) error) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	req, err := s.parseScanRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.runScan(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := render(&buf, res); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := buf.WriteTo(w); err != nil {
		monitoring.Warnf("failed to write map: %v", err)
	}
}
