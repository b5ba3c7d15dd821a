// 包 submission：新上报写入前的守卫（登录态、类型、严重程度、服务区）
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"trashtrackr/internal/auth"
	"trashtrackr/internal/geofence"
	"trashtrackr/internal/metrics"
	"trashtrackr/internal/reports"
	"trashtrackr/internal/store"
)

// 前置条件失败，按检查顺序排列；调用方需重新收集输入，不重试
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrMissingTypes     = errors.New("missing types")
	ErrInvalidSeverity  = errors.New("invalid severity")
	ErrOutOfServiceArea = errors.New("out of service area")
)

// Code：前置条件错误对应的稳定错误码，其余错误返回空串
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return "NotAuthenticated"
	case errors.Is(err, ErrMissingTypes):
		return "MissingTypes"
	case errors.Is(err, ErrInvalidSeverity):
		return "InvalidSeverity"
	case errors.Is(err, ErrOutOfServiceArea):
		return "OutOfServiceArea"
	}
	return ""
}

// Candidate：待提交的上报输入；Location 为未校验的坐标（geofence.Coordinate 或 {lat,lng} 映射）
type Candidate struct {
	Types    []string
	Severity string
	Location any
}

// 文档注释：提交校验器
// 背景：写入前依次检查登录态、类型、严重程度与服务区，首个失败即返回；通过后仅追加一条存储记录，不做本地乐观插入。
// 约束：createdAt 由存储分配；署名取自提交时刻的主体快照，此后不再校验。
type Validator struct {
	store store.Store
	fence *geofence.Fence
	log   *slog.Logger
}

func NewValidator(s store.Store, f *geofence.Fence, l *slog.Logger) *Validator {
	return &Validator{store: s, fence: f, log: l}
}

// Submit：校验并写入，返回存储分配的 ID
func (v *Validator) Submit(ctx context.Context, c Candidate, p *auth.Principal) (string, error) {
	start := time.Now()
	id, err := v.submit(ctx, c, p)
	metrics.SubmissionDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	outcome := Code(err)
	switch {
	case err == nil:
		outcome = "ok"
	case outcome == "":
		outcome = "store_error"
	}
	metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
	return id, err
}

func (v *Validator) submit(ctx context.Context, c Candidate, p *auth.Principal) (string, error) {
	if p == nil || p.UID == "" {
		return "", ErrNotAuthenticated
	}
	types := cleanTypes(c.Types)
	if len(types) == 0 {
		return "", ErrMissingTypes
	}
	sev, ok := reports.ParseSeverity(c.Severity)
	if !ok {
		return "", ErrInvalidSeverity
	}
	loc, ok := geofence.NormalizeCoordinate(c.Location)
	if !ok || !v.fence.WithinServiceRadius(loc) {
		v.log.Debug("submission_out_of_area", "uid", p.UID, "location", c.Location)
		return "", ErrOutOfServiceArea
	}
	id, err := v.store.Add(ctx, reports.Draft{
		Types:     types,
		Severity:  sev,
		Location:  loc,
		CreatedBy: attribution(p),
	})
	if err != nil {
		v.log.Error("report_submit_error", "uid", p.UID, "err", err)
		return "", fmt.Errorf("store report: %w", err)
	}
	v.log.Info("report_submitted", "id", id, "uid", p.UID, "severity", sev, "types", len(types))
	return id, nil
}

// cleanTypes：去除首尾空白与空项，保序去重
func cleanTypes(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func attribution(p *auth.Principal) *reports.Attribution {
	return &reports.Attribution{
		UID:         p.UID,
		DisplayName: optional(p.DisplayName),
		Email:       optional(p.Email),
		PhotoURL:    optional(p.PhotoURL),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
