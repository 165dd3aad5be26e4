package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStrings(t *testing.T) {
	p := FromStrings("3", "500")
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 100, p.PerPage)

	p = FromStrings("abc", "")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 15, p.PerPage)

	p = FromStrings("-2", "0")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 15, p.PerPage)
}

func TestWindow(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{3, 4}, Window(items, &PaginationParams{Page: 2, PerPage: 2}))
	assert.Equal(t, []int{5}, Window(items, &PaginationParams{Page: 3, PerPage: 2}))
	assert.Empty(t, Window(items, &PaginationParams{Page: 4, PerPage: 2}))
	assert.Equal(t, items, Window(items, nil))
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = NewPagination(1, 10, 0)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)
}
