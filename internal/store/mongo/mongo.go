// 包 mongo：基于 MongoDB 的上报存储，实时订阅依赖变更流（需副本集）
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trashtrackr/internal/reports"
	"trashtrackr/internal/store"
)

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    *slog.Logger
}

func New(client *mongo.Client, db, collection string, l *slog.Logger) *Store {
	if collection == "" {
		collection = "reports"
	}
	return &Store{client: client, coll: client.Database(db).Collection(collection), log: l}
}

// Open：连接并 Ping；失败时断开连接
func Open(ctx context.Context, uri, db, collection string, l *slog.Logger) (*Store, error) {
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := c.Ping(ctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return New(c, db, collection, l), nil
}

// Add：以新 ObjectID upsert；未指定时间时由服务端 $currentDate 写入 createdAt
func (s *Store) Add(ctx context.Context, d reports.Draft) (string, error) {
	id := primitive.NewObjectID()
	set := bson.M(d.Fields())
	update := bson.M{"$set": set}
	if d.CreatedAt != nil {
		set[reports.FieldCreatedAt] = d.CreatedAt.UTC()
	} else {
		update["$currentDate"] = bson.M{reports.FieldCreatedAt: true}
	}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return "", fmt.Errorf("mongo add: %w", err)
	}
	return id.Hex(), nil
}

func (s *Store) All(ctx context.Context) ([]store.Document, error) {
	return s.find(ctx, bson.M{})
}

func (s *Store) Synthetic(ctx context.Context) ([]store.Document, error) {
	return s.find(ctx, bson.M{reports.FieldIsFake: true})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]store.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: reports.FieldCreatedAt, Value: -1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)
	var out []store.Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			s.log.Debug("mongo_decode_error", "err", err)
			continue
		}
		out = append(out, toDocument(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo cursor: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": idFilter(id)})
	if err != nil {
		return fmt.Errorf("mongo delete %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetTypes(ctx context.Context, id string, types []any) error {
	if types == nil {
		types = []any{}
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": idFilter(id)}, bson.M{"$set": bson.M{reports.FieldTypes: types}})
	if err != nil {
		return fmt.Errorf("mongo update %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Watch：先推送一次全量，再在每个变更事件后重新全量查询推送
// 约束：单机部署不支持变更流，此时直接返回错误。
func (s *Store) Watch(ctx context.Context, onSnapshot func([]store.Document), onError func(error)) (func(), error) {
	wctx, cancel := context.WithCancel(ctx)
	cs, err := s.coll.Watch(wctx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("mongo change stream: %w", err)
	}
	var once sync.Once
	stop := func() { once.Do(cancel) }
	go func() {
		defer cs.Close(context.Background())
		emit := func() bool {
			docs, err := s.All(wctx)
			if err != nil {
				if wctx.Err() == nil {
					onError(err)
				}
				return false
			}
			onSnapshot(docs)
			return true
		}
		if !emit() {
			return
		}
		for cs.Next(wctx) {
			if !emit() {
				return
			}
		}
		if err := cs.Err(); err != nil && wctx.Err() == nil && !errors.Is(err, context.Canceled) {
			onError(fmt.Errorf("mongo change stream: %w", err))
		}
	}()
	return stop, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func idFilter(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func toDocument(raw bson.M) store.Document {
	var id string
	switch v := raw["_id"].(type) {
	case primitive.ObjectID:
		id = v.Hex()
	case string:
		id = v
	default:
		id = fmt.Sprint(v)
	}
	delete(raw, "_id")
	return store.Document{ID: id, Data: plainMap(raw)}
}

// plainMap：把驱动类型转换为与其他后端一致的 map/[]any/time.Time
func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plain(v)
	}
	return out
}

func plain(v any) any {
	switch x := v.(type) {
	case bson.M:
		return plainMap(x)
	case map[string]any:
		return plainMap(x)
	case bson.D:
		return plainMap(x.Map())
	case bson.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(x.T), 0).UTC()
	case primitive.ObjectID:
		return x.Hex()
	case int32:
		return int64(x)
	}
	return v
}
