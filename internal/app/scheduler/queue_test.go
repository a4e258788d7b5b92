package scheduler

import (
	"container/heap"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePopOrder(t *testing.T) {
	base := time.Now()
	q := make(requestQueue, 0, 4)
	heap.Init(&q)
	heap.Push(&q, makeRequest("auto-1", PriorityAuto, base))
	heap.Push(&q, makeRequest("manual-2", PriorityManual, base.Add(3*time.Millisecond)))
	heap.Push(&q, makeRequest("auto-2", PriorityAuto, base.Add(time.Millisecond)))
	heap.Push(&q, makeRequest("manual-1", PriorityManual, base.Add(2*time.Millisecond)))

	var order []string
	for q.Len() > 0 {
		order = append(order, heap.Pop(&q).(*Request).ID)
	}
	assert.Equal(t, []string{"manual-1", "manual-2", "auto-1", "auto-2"}, order)
}

func TestQueueRemoveByID(t *testing.T) {
	base := time.Now()
	q := make(requestQueue, 0, 3)
	heap.Init(&q)
	heap.Push(&q, makeRequest("a", PriorityAuto, base))
	heap.Push(&q, makeRequest("b", PriorityManual, base))
	heap.Push(&q, makeRequest("c", PriorityAuto, base))

	removed := q.removeByID("b")
	require.NotNil(t, removed)
	assert.Equal(t, "b", removed.ID)
	assert.Nil(t, q.removeByID("b"))
	assert.Equal(t, 2, q.Len())
}

func TestQueueEvictWorst(t *testing.T) {
	base := time.Now()
	q := make(requestQueue, 0, 3)
	heap.Init(&q)
	heap.Push(&q, makeRequest("manual", PriorityManual, base))
	heap.Push(&q, makeRequest("auto-old", PriorityAuto, base.Add(time.Millisecond)))
	heap.Push(&q, makeRequest("auto-new", PriorityAuto, base.Add(2*time.Millisecond)))

	// Жертва — наибольший приоритет, при равенстве старейший
	evicted := q.evictWorst()
	require.NotNil(t, evicted)
	assert.Equal(t, "auto-old", evicted.ID)

	evicted = q.evictWorst()
	assert.Equal(t, "auto-new", evicted.ID)

	evicted = q.evictWorst()
	assert.Equal(t, "manual", evicted.ID)
	assert.Nil(t, q.evictWorst())
}

func TestRequestMaxTokens(t *testing.T) {
	r := &Request{}
	assert.Equal(t, 0, r.MaxTokens())

	r.Parameters = map[string]any{"max_tokens": 64}
	assert.Equal(t, 64, r.MaxTokens())

	r.Parameters = map[string]any{"max_tokens": "lots"}
	assert.Equal(t, 0, r.MaxTokens())
}
