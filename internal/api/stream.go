package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"trashtrackr/internal/projection"
)

const streamHeartbeat = 25 * time.Second

// stream：GET /reports/stream，Server-Sent Events
// 背景：每次投影更新推送一条 snapshot 事件（服务半径内、按查询参数筛选后的完整列表）；定期发送注释行保活。
// 约束：连接断开即注销监听；慢客户端只会收到最新快照。
func (h *handler) stream(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "StreamingUnsupported")
		return
	}
	q := r.URL.Query()
	f := projection.Filter{Severity: q.Get("severity"), Types: q["type"]}

	w.Header().Set("content-type", "text/event-stream")
	w.Header().Set("cache-control", "no-store")
	w.Header().Set("connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fl.Flush()

	ch, cancel := h.Cache.Listen()
	defer cancel()
	tick := time.NewTicker(streamHeartbeat)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			fl.Flush()
		case recs := <-ch:
			b, err := json.Marshal(f.Apply(projection.WithinRadius(h.Fence, recs)))
			if err != nil {
				h.Log.Error("stream_encode_error", "err", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", b); err != nil {
				return
			}
			fl.Flush()
		}
	}
}
