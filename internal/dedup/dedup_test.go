package dedup

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeen(t *testing.T) {
	c := New(2)

	assert.False(t, c.Seen("KDSM|55|1754"))
	assert.True(t, c.Seen("KDSM|55|1754"))
	assert.False(t, c.Seen("KAMW|60|1754"))
	assert.Equal(t, 2, c.Len())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	c.Seen("a")
	c.Seen("b")
	c.Seen("a") // a is now most recent
	c.Seen("c") // evicts b

	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Seen("a"))
	assert.False(t, c.Seen("b"))
}

func TestDefaultSize(t *testing.T) {
	c := New(0)
	assert.Equal(t, DefaultSize, c.maxEntries)
}

func TestConcurrentSeen(t *testing.T) {
	c := New(100)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.Seen(fmt.Sprintf("k%d", j))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}
