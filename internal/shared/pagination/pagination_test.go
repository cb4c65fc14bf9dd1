package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        Params
	}{
		{"defaults", 0, 0, Params{Page: 1, Limit: 10, Offset: 0}},
		{"third page", 3, 20, Params{Page: 3, Limit: 20, Offset: 40}},
		{"negative page", -4, 5, Params{Page: 1, Limit: 5, Offset: 0}},
		{"limit clamped", 2, 1000, Params{Page: 2, Limit: MaxLimit, Offset: MaxLimit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.page, tt.limit))
		})
	}
}

func TestNewResult(t *testing.T) {
	r := NewResult([]string{"a", "b"}, 21, Normalize(2, 10))
	assert.Equal(t, 3, r.TotalPages)
	assert.Equal(t, 21, r.Total)
	assert.Equal(t, 2, r.Page)
	assert.Len(t, r.Data, 2)

	meta := r.Meta()
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 10, meta.Limit)
}

func TestNewResult_Empty(t *testing.T) {
	r := NewResult[int](nil, 0, Normalize(1, 10))
	assert.NotNil(t, r.Data)
	assert.Empty(t, r.Data)
	assert.Equal(t, 0, r.TotalPages)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(0, 10))
}
