// 包 firestore：基于 Cloud Firestore 的上报存储（reports 集合，一文档一上报）
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"trashtrackr/internal/reports"
	"trashtrackr/internal/store"
)

const DefaultCollection = "reports"

// Store：Firestore 实现；客户端由调用方构造注入或通过 Open 创建
type Store struct {
	client *firestore.Client
	coll   string
	log    *slog.Logger
}

func New(client *firestore.Client, collection string, l *slog.Logger) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{client: client, coll: collection, log: l}
}

// Open：按项目 ID 创建客户端；credentialsFile 为空时使用默认凭据
func Open(ctx context.Context, projectID, credentialsFile, collection string, l *slog.Logger) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return New(c, collection, l), nil
}

func (s *Store) collection() *firestore.CollectionRef { return s.client.Collection(s.coll) }

func (s *Store) Add(ctx context.Context, d reports.Draft) (string, error) {
	data := d.Fields()
	if d.CreatedAt != nil {
		data[reports.FieldCreatedAt] = d.CreatedAt.UTC()
	} else {
		data[reports.FieldCreatedAt] = firestore.ServerTimestamp
	}
	ref, _, err := s.collection().Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("firestore add: %w", err)
	}
	return ref.ID, nil
}

func (s *Store) All(ctx context.Context) ([]store.Document, error) {
	snaps, err := s.collection().Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore scan: %w", err)
	}
	return toDocuments(snaps), nil
}

func (s *Store) Synthetic(ctx context.Context) ([]store.Document, error) {
	snaps, err := s.collection().Where(reports.FieldIsFake, "==", true).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore synthetic query: %w", err)
	}
	return toDocuments(snaps), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.collection().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore delete %s: %w", id, err)
	}
	return nil
}

func (s *Store) SetTypes(ctx context.Context, id string, types []any) error {
	if types == nil {
		types = []any{}
	}
	_, err := s.collection().Doc(id).Update(ctx, []firestore.Update{{Path: reports.FieldTypes, Value: types}})
	if status.Code(err) == codes.NotFound {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("firestore update %s: %w", id, err)
	}
	return nil
}

// Watch：实时查询（createdAt 倒序），每次变更推送完整快照
// 约束：stop 只取消 ctx，迭代器由监听协程自行关闭；取消时静默退出，其他错误交给 onError 后结束订阅。
func (s *Store) Watch(ctx context.Context, onSnapshot func([]store.Document), onError func(error)) (func(), error) {
	wctx, cancel := context.WithCancel(ctx)
	it := queryIterator{s.collection().OrderBy(reports.FieldCreatedAt, firestore.Desc).Snapshots(wctx)}
	go watchLoop(wctx, it, onSnapshot, onError, s.log)
	return cancel, nil
}

// snapshotIterator：实时查询迭代器；Stop 不得与 Next 并发调用
type snapshotIterator interface {
	Next() ([]store.Document, error)
	Stop()
}

type queryIterator struct {
	it *firestore.QuerySnapshotIterator
}

func (q queryIterator) Next() ([]store.Document, error) {
	snap, err := q.it.Next()
	if err != nil {
		return nil, err
	}
	docs, err := snap.Documents.GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore snapshot: %w", err)
	}
	return toDocuments(docs), nil
}

func (q queryIterator) Stop() { q.it.Stop() }

// watchLoop：Next 与 Stop 都在本协程内调用
func watchLoop(ctx context.Context, it snapshotIterator, onSnapshot func([]store.Document), onError func(error), l *slog.Logger) {
	defer it.Stop()
	for {
		docs, err := it.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled || ctx.Err() != nil {
				l.Debug("firestore_watch_end")
				return
			}
			onError(fmt.Errorf("firestore watch: %w", err))
			return
		}
		onSnapshot(docs)
	}
}

func (s *Store) Close() error { return s.client.Close() }

func toDocuments(snaps []*firestore.DocumentSnapshot) []store.Document {
	out := make([]store.Document, 0, len(snaps))
	for _, ds := range snaps {
		if ds == nil || !ds.Exists() {
			continue
		}
		out = append(out, store.Document{ID: ds.Ref.ID, Data: ds.Data()})
	}
	return out
}
