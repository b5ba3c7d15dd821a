package api

import (
	"encoding/csv"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trashtrackr/internal/reports"
)

var csvHeader = []string{"id", "types", "severity", "lat", "lng", "createdAt"}

// WriteCSV：导出列 id,types,severity,lat,lng,createdAt
// 约束：types 以 | 连接；createdAt 为 RFC3339 UTC，为空时使用 fallback。
func WriteCSV(w io.Writer, recs []reports.Report, fallback time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range recs {
		created := fallback
		if r.CreatedAt != nil {
			created = *r.CreatedAt
		}
		row := []string{
			r.ID,
			strings.Join(r.Types, "|"),
			string(r.Severity),
			strconv.FormatFloat(r.Location.Lat, 'f', -1, 64),
			strconv.FormatFloat(r.Location.Lng, 'f', -1, 64),
			created.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// export：GET /reports/export.csv，筛选参数与看板一致
func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	recs := h.current(r)
	w.Header().Set("content-type", "text/csv; charset=utf-8")
	w.Header().Set("content-disposition", `attachment; filename="reports.csv"`)
	w.Header().Set("cache-control", "no-store")
	if err := WriteCSV(w, recs, h.Now()); err != nil {
		h.Log.Error("csv_export_error", "err", err)
	}
}
