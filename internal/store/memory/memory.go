// 包 memory：进程内存储实现，用于单元测试与本地演示（STORE_BACKEND=memory）
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"trashtrackr/internal/reports"
	"trashtrackr/internal/store"
)

type entry struct {
	id   string
	seq  int
	data map[string]any
}

// listener：同一监听的回调串行执行，版本不新于已推送快照的直接丢弃
type listener struct {
	mu      sync.Mutex
	version uint64
	fn      func([]store.Document)
}

func (l *listener) deliver(version uint64, snap []store.Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if version < l.version {
		return
	}
	l.version = version + 1
	l.fn(snap)
}

// Store：基于 map 的存储，所有方法并发安全；监听回调在存储锁外执行
type Store struct {
	mu        sync.Mutex
	docs      map[string]*entry
	seq       int
	version   uint64
	listeners map[int]*listener
	nextL     int
	now       func() time.Time
}

func New() *Store {
	return &Store{
		docs:      map[string]*entry{},
		listeners: map[int]*listener{},
		now:       time.Now,
	}
}

// WithClock：替换服务端时间来源
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Add(ctx context.Context, d reports.Draft) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data := d.Fields()
	if d.CreatedAt != nil {
		data[reports.FieldCreatedAt] = d.CreatedAt.UTC()
	} else {
		data[reports.FieldCreatedAt] = s.now().UTC()
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.put(id, data)
	s.mu.Unlock()
	s.notify()
	return id, nil
}

// Put：写入任意原始文档（可为畸形数据），用于模拟外部写入
func (s *Store) Put(id string, data map[string]any) {
	s.mu.Lock()
	s.put(id, data)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) put(id string, data map[string]any) {
	s.seq++
	s.docs[id] = &entry{id: id, seq: s.seq, data: data}
}

func (s *Store) All(ctx context.Context) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(nil), nil
}

func (s *Store) Synthetic(ctx context.Context) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(func(e *entry) bool {
		fake, _ := e.data[reports.FieldIsFake].(bool)
		return fake
	}), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if _, ok := s.docs[id]; !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	delete(s.docs, id)
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Store) SetTypes(ctx context.Context, id string, types []any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	e, ok := s.docs[id]
	if !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	vals := make([]any, 0, len(types))
	vals = append(vals, types...)
	next := cloneData(e.data)
	next[reports.FieldTypes] = vals
	e.data = next
	s.mu.Unlock()
	s.notify()
	return nil
}

// Watch：注册监听并立即推送一次当前快照
func (s *Store) Watch(ctx context.Context, onSnapshot func([]store.Document), onError func(error)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	id := s.nextL
	s.nextL++
	ln := &listener{fn: onSnapshot}
	s.listeners[id] = ln
	initial, version := s.snapshot(nil), s.version
	s.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()
	ln.deliver(version, initial)
	return stop, nil
}

func (s *Store) Close() error { return nil }

// Len：当前文档数
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Get：按 ID 读取原始文档副本
func (s *Store) Get(id string) (store.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[id]
	if !ok {
		return store.Document{}, false
	}
	return store.Document{ID: e.id, Data: cloneData(e.data)}, true
}

func (s *Store) notify() {
	s.mu.Lock()
	s.version++
	version := s.version
	snap := s.snapshot(nil)
	ls := make([]*listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()
	for _, l := range ls {
		l.deliver(version, snap)
	}
}

// snapshot：调用方持锁；按 createdAt 倒序，空值靠后，同值按写入顺序倒序
func (s *Store) snapshot(keep func(*entry) bool) []store.Document {
	es := make([]*entry, 0, len(s.docs))
	for _, e := range s.docs {
		if keep == nil || keep(e) {
			es = append(es, e)
		}
	}
	sort.Slice(es, func(i, j int) bool {
		ti, iok := createdAt(es[i].data)
		tj, jok := createdAt(es[j].data)
		switch {
		case iok && jok && !ti.Equal(tj):
			return ti.After(tj)
		case iok != jok:
			return iok
		}
		return es[i].seq > es[j].seq
	})
	out := make([]store.Document, 0, len(es))
	for _, e := range es {
		out = append(out, store.Document{ID: e.id, Data: cloneData(e.data)})
	}
	return out
}

func createdAt(data map[string]any) (time.Time, bool) {
	t, ok := data[reports.FieldCreatedAt].(time.Time)
	return t, ok && !t.IsZero()
}

func cloneData(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if xs, ok := v.([]any); ok {
			v = append([]any(nil), xs...)
		}
		out[k] = v
	}
	return out
}
