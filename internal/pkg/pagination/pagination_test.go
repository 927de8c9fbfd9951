package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p := Normalize(0, 0)
		assert.Equal(t, int64(1), p.Page)
		assert.Equal(t, int64(50), p.Limit)
	})

	t.Run("clamps limit", func(t *testing.T) {
		assert.Equal(t, int64(200), Normalize(1, 5000).Limit)
		assert.Equal(t, int64(1), Normalize(1, -3).Limit)
	})

	t.Run("clamps page", func(t *testing.T) {
		assert.Equal(t, int64(1), Normalize(-7, 50).Page)
	})

	t.Run("offset", func(t *testing.T) {
		assert.Equal(t, int64(100), Normalize(3, 50).Offset())
	})
}

func TestNewMeta(t *testing.T) {
	t.Run("empty result has zero pages", func(t *testing.T) {
		m := NewMeta(Normalize(1, 50), 0)
		assert.Equal(t, int64(0), m.TotalPages)
	})

	t.Run("rounds pages up", func(t *testing.T) {
		m := NewMeta(Normalize(2, 50), 101)
		assert.Equal(t, int64(3), m.TotalPages)
		assert.Equal(t, int64(101), m.TotalItems)
		assert.Equal(t, int64(2), m.Page)
	})
}
