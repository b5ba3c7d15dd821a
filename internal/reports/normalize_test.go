package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDoc() map[string]any {
	return map[string]any{
		"types":    []any{"Plastic", "Glass"},
		"severity": "High",
		"location": map[string]any{"lat": 12.9716, "lng": 77.5946},
	}
}

func TestNormalize(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		doc := validDoc()
		doc["createdAt"] = created
		doc["createdBy"] = map[string]any{"uid": "u1", "displayName": "Asha", "email": nil}

		r, ok := Normalize(doc, "r1")
		require.True(t, ok)
		assert.Equal(t, "r1", r.ID)
		assert.Equal(t, []string{"Plastic", "Glass"}, r.Types)
		assert.Equal(t, SeverityHigh, r.Severity)
		assert.Equal(t, 12.9716, r.Location.Lat)
		require.NotNil(t, r.CreatedAt)
		assert.True(t, created.Equal(*r.CreatedAt))
		require.NotNil(t, r.CreatedBy)
		assert.Equal(t, "u1", r.CreatedBy.UID)
		require.NotNil(t, r.CreatedBy.DisplayName)
		assert.Equal(t, "Asha", *r.CreatedBy.DisplayName)
		assert.Nil(t, r.CreatedBy.Email)
		assert.Nil(t, r.CreatedBy.PhotoURL)
	})

	t.Run("non-numeric latitude is dropped", func(t *testing.T) {
		doc := validDoc()
		doc["location"] = map[string]any{"lat": "abc", "lng": 77.5946}
		_, ok := Normalize(doc, "r1")
		assert.False(t, ok)
	})

	t.Run("missing location is dropped", func(t *testing.T) {
		doc := validDoc()
		delete(doc, "location")
		_, ok := Normalize(doc, "r1")
		assert.False(t, ok)
	})

	t.Run("location of wrong shape is dropped", func(t *testing.T) {
		doc := validDoc()
		doc["location"] = "12.9,77.5"
		_, ok := Normalize(doc, "r1")
		assert.False(t, ok)
	})

	t.Run("unknown severity becomes Medium", func(t *testing.T) {
		doc := validDoc()
		doc["severity"] = "Unknown"
		r, ok := Normalize(doc, "r1")
		require.True(t, ok)
		assert.Equal(t, SeverityMedium, r.Severity)
	})

	t.Run("severity is case sensitive", func(t *testing.T) {
		doc := validDoc()
		doc["severity"] = "high"
		r, ok := Normalize(doc, "r1")
		require.True(t, ok)
		assert.Equal(t, SeverityMedium, r.Severity)
	})

	t.Run("non-string severity becomes Medium", func(t *testing.T) {
		doc := validDoc()
		doc["severity"] = 3
		r, ok := Normalize(doc, "r1")
		require.True(t, ok)
		assert.Equal(t, SeverityMedium, r.Severity)
	})

	t.Run("types keep only non-empty strings", func(t *testing.T) {
		doc := validDoc()
		doc["types"] = []any{"Plastic", "", 42, nil, "Metal"}
		r, ok := Normalize(doc, "r1")
		require.True(t, ok)
		assert.Equal(t, []string{"Plastic", "Metal"}, r.Types)
	})

	t.Run("non-array types yields empty set", func(t *testing.T) {
		doc := validDoc()
		doc["types"] = "Plastic"
		r, ok := Normalize(doc, "r1")
		require.True(t, ok)
		assert.Empty(t, r.Types)
		assert.NotNil(t, r.Types)
	})

	t.Run("malformed attribution is omitted", func(t *testing.T) {
		doc := validDoc()
		doc["createdBy"] = "someone"
		r, ok := Normalize(doc, "r1")
		require.True(t, ok)
		assert.Nil(t, r.CreatedBy)
	})

	t.Run("attribution with non-string uid keeps empty uid", func(t *testing.T) {
		doc := validDoc()
		doc["createdBy"] = map[string]any{"uid": 7, "photoURL": 1}
		r, ok := Normalize(doc, "r1")
		require.True(t, ok)
		require.NotNil(t, r.CreatedBy)
		assert.Equal(t, "", r.CreatedBy.UID)
		assert.Nil(t, r.CreatedBy.PhotoURL)
	})

	t.Run("createdAt that is not a timestamp is nil", func(t *testing.T) {
		doc := validDoc()
		doc["createdAt"] = "2024-05-01T10:00:00Z"
		r, ok := Normalize(doc, "r1")
		require.True(t, ok)
		assert.Nil(t, r.CreatedAt)

		doc["createdAt"] = time.Time{}
		r, ok = Normalize(doc, "r1")
		require.True(t, ok)
		assert.Nil(t, r.CreatedAt)
	})

	t.Run("isFake is ignored", func(t *testing.T) {
		doc := validDoc()
		doc["isFake"] = true
		_, ok := Normalize(doc, "r1")
		assert.True(t, ok)
	})
}

func TestDraftFields(t *testing.T) {
	name := "Seeder"
	d := Draft{
		Types:     []string{"Plastic"},
		Severity:  SeverityLow,
		CreatedBy: &Attribution{UID: "seed-script", DisplayName: &name},
		IsFake:    true,
	}
	d.Location.Lat, d.Location.Lng = 12.9, 77.6

	m := d.Fields()
	assert.Equal(t, []any{"Plastic"}, m["types"])
	assert.Equal(t, "Low", m["severity"])
	assert.Equal(t, true, m["isFake"])
	assert.Equal(t, map[string]any{"uid": "seed-script", "displayName": "Seeder", "email": nil, "photoURL": nil}, m["createdBy"])
	assert.NotContains(t, m, "createdAt")

	// 字段表可被 Normalize 原样读回
	r, ok := Normalize(m, "x")
	require.True(t, ok)
	assert.Equal(t, SeverityLow, r.Severity)
	assert.Equal(t, "seed-script", r.CreatedBy.UID)
}

func TestParseSeverity(t *testing.T) {
	for _, s := range Severities {
		got, ok := ParseSeverity(string(s))
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseSeverity("Severe")
	assert.False(t, ok)
	_, ok = ParseSeverity("")
	assert.False(t, ok)
}
