package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	cases := map[int]int{0: 0, -1: 0, 1: 1, 2: 1, 3: 2, 5: 3, 6: 3}
	for count, want := range cases {
		assert.Equal(t, want, TotalPages(count), "count=%d", count)
	}
}
