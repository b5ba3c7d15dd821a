package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trashtrackr/internal/reports"
)

func TestToDocumentConvertsDriverTypes(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
	raw := bson.M{
		"_id":       oid,
		"types":     bson.A{"Plastic", int32(4)},
		"severity":  "Critical",
		"location":  bson.M{"lat": 12.95, "lng": int32(77)},
		"createdAt": primitive.NewDateTimeFromTime(created),
		"createdBy": bson.D{{Key: "uid", Value: "u1"}},
	}

	doc := toDocument(raw)
	assert.Equal(t, oid.Hex(), doc.ID)
	assert.NotContains(t, doc.Data, "_id")
	assert.Equal(t, []any{"Plastic", int64(4)}, doc.Data["types"])
	assert.Equal(t, map[string]any{"lat": 12.95, "lng": int64(77)}, doc.Data["location"])

	r, ok := reports.Normalize(doc.Data, doc.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"Plastic"}, r.Types)
	assert.Equal(t, reports.SeverityCritical, r.Severity)
	assert.Equal(t, 77.0, r.Location.Lng)
	require.NotNil(t, r.CreatedAt)
	assert.True(t, created.Equal(*r.CreatedAt))
	require.NotNil(t, r.CreatedBy)
	assert.Equal(t, "u1", r.CreatedBy.UID)
}

func TestIDFilter(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, oid, idFilter(oid.Hex()))
	assert.Equal(t, "custom-id", idFilter("custom-id"))
}
