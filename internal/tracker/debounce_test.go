package tracker

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer(t *testing.T) {
	t.Run("bursts collapse into one run", func(t *testing.T) {
		var runs atomic.Int32
		d := NewDebouncer(30*time.Millisecond, func() { runs.Add(1) })

		for i := 0; i < 10; i++ {
			d.Trigger()
			time.Sleep(2 * time.Millisecond)
		}
		assert.True(t, d.Pending())

		assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, int32(1), runs.Load())
		assert.False(t, d.Pending())
	})

	t.Run("cancel drops the scheduled run", func(t *testing.T) {
		var runs atomic.Int32
		d := NewDebouncer(20*time.Millisecond, func() { runs.Add(1) })

		d.Trigger()
		assert.True(t, d.Cancel())
		assert.False(t, d.Cancel())

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, int32(0), runs.Load())
	})
}
