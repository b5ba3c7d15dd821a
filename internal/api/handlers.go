package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"trashtrackr/internal/auth"
	"trashtrackr/internal/geofence"
	"trashtrackr/internal/metrics"
	"trashtrackr/internal/projection"
	"trashtrackr/internal/reports"
	"trashtrackr/internal/submission"
)

const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}

// submit：POST /reports
// 约束：前置条件失败 401/422，重复提交 409，存储失败 502，成功 201 {id}
func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest")
		return
	}
	if req.Manual {
		if c, ok := geofence.NormalizeCoordinate(req.Location); ok {
			req.Location = geofence.Clamp(c)
		}
	}
	p := auth.FromContext(r.Context())
	var payload []byte
	if p != nil {
		payload, _ = json.Marshal(req)
		if h.Dedupe.Seen(r.Context(), p.UID, payload) {
			metrics.DuplicateSubmissionsTotal.Inc()
			h.Log.Info("report_duplicate", "uid", p.UID, "ip", clientIP(r))
			writeError(w, http.StatusConflict, "Duplicate")
			return
		}
	}
	id, err := h.Validator.Submit(r.Context(), submission.Candidate{
		Types:    req.Types,
		Severity: req.Severity,
		Location: req.Location,
	}, p)
	if err != nil {
		switch code := submission.Code(err); {
		case errors.Is(err, submission.ErrNotAuthenticated):
			writeError(w, http.StatusUnauthorized, code)
		case code != "":
			writeError(w, http.StatusUnprocessableEntity, code)
		default:
			writeError(w, http.StatusBadGateway, "StoreUnavailable")
		}
		return
	}
	h.Dedupe.Mark(r.Context(), p.UID, payload)
	writeJSON(w, http.StatusCreated, submitResponse{ID: id})
}

// current：服务半径内、按查询参数筛选后的当前记录
func (h *handler) current(r *http.Request) []reports.Report {
	q := r.URL.Query()
	f := projection.Filter{Severity: q.Get("severity"), Types: q["type"]}
	return f.Apply(projection.WithinRadius(h.Fence, h.Cache.Records()))
}

// feed：GET /reports?severity=&type=&type=
func (h *handler) feed(w http.ResponseWriter, r *http.Request) {
	if !h.Cache.Ready() {
		writeError(w, http.StatusServiceUnavailable, "NotReady")
		return
	}
	recs := h.current(r)
	writeJSON(w, http.StatusOK, feedResponse{Count: len(recs), Records: recs})
}

// types：GET /reports/types
func (h *handler) types(w http.ResponseWriter, r *http.Request) {
	recs := projection.WithinRadius(h.Fence, h.Cache.Records())
	writeJSON(w, http.StatusOK, typesResponse{Types: projection.AllTypes(recs)})
}
