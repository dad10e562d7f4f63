package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunCoversEveryIndexOnce(t *testing.T) {
	const n = 1000
	hits := make([]int32, n)
	Run(4, n, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	})
	for i, h := range hits {
		assert.Equal(t, int32(1), h, "index %d", i)
	}
}

func TestRunSingleWorkerIsSequential(t *testing.T) {
	var order []int
	Run(1, 5, func(i int) { order = append(order, i) })
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestRunZeroTasksIsNoOp(t *testing.T) {
	called := false
	Run(4, 0, func(int) { called = true })
	assert.False(t, called)
}

func TestPoolSubmitAndStop(t *testing.T) {
	p := New(3)
	var count int64
	for i := 0; i < 100; i++ {
		p.Submit(func() { atomic.AddInt64(&count, 1) })
	}
	p.Stop()
	assert.Equal(t, int64(100), count)
}
