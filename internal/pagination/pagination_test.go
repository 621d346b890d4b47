package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name  string
		req   PageRequest
		want  []int
		pages int
	}{
		{"defaults", PageRequest{}, []int{1, 2, 3, 4, 5}, 1},
		{"first page", PageRequest{Page: 1, PageSize: 2}, []int{1, 2}, 3},
		{"last partial page", PageRequest{Page: 3, PageSize: 2}, []int{5}, 3},
		{"past the end", PageRequest{Page: 9, PageSize: 2}, []int{}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slice(items, tt.req)
			assert.Equal(t, tt.want, got.Data)
			assert.EqualValues(t, 5, got.TotalItems)
			assert.Equal(t, tt.pages, got.TotalPages)
		})
	}
}

func TestNewPageResponse_NilDataIsEmpty(t *testing.T) {
	resp := NewPageResponse[string](nil, 1, 20, 0)
	assert.NotNil(t, resp.Data)
	assert.Zero(t, resp.TotalPages)
}
