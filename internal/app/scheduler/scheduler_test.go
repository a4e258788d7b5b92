package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"InkSage/internal/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *eventRecorder) byType(t EventType) []Event {
	var out []Event
	for _, ev := range r.all() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func makeRequest(id string, priority int, createdAt time.Time) *Request {
	return &Request{
		ID:        id,
		Prompt:    "prompt " + id,
		Kind:      KindCompletion,
		Priority:  priority,
		CreatedAt: createdAt,
	}
}

func TestProcessesByPriorityThenAge(t *testing.T) {
	var mu sync.Mutex
	var order []string
	engine := &ai.StubEngine{Fn: func(req ai.Request) (string, error) {
		mu.Lock()
		order = append(order, req.Prompt)
		mu.Unlock()
		return "ok", nil
	}}

	rec := &eventRecorder{}
	s := New(engine, 10, zap.NewNop().Sugar())
	s.OnEvent(rec.record)

	// Очередь наполняется до запуска воркера: порядок извлечения детерминирован
	base := time.Now()
	s.Enqueue(makeRequest("auto-1", PriorityAuto, base))
	s.Enqueue(makeRequest("manual-1", PriorityManual, base.Add(time.Millisecond)))
	s.Enqueue(makeRequest("auto-2", PriorityAuto, base.Add(2*time.Millisecond)))
	s.Enqueue(makeRequest("manual-2", PriorityManual, base.Add(3*time.Millisecond)))

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return len(rec.byType(EventCompleted)) == 4
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	// Сначала ручные (приоритет 1) в порядке постановки, затем автоматические
	assert.Equal(t, []string{"prompt manual-1", "prompt manual-2", "prompt auto-1", "prompt auto-2"}, order)
}

func TestEvictsLeastUrgentOldestWhenFull(t *testing.T) {
	rec := &eventRecorder{}
	s := New(&ai.StubEngine{Reply: "ok"}, 2, zap.NewNop().Sugar())
	s.OnEvent(rec.record)

	base := time.Now()
	s.Enqueue(makeRequest("auto-old", PriorityAuto, base))
	s.Enqueue(makeRequest("auto-new", PriorityAuto, base.Add(time.Millisecond)))
	// Очередь полна: вытесняется старейший из наименее срочных, а не новый запрос
	s.Enqueue(makeRequest("manual", PriorityManual, base.Add(2*time.Millisecond)))

	dropped := rec.byType(EventDropped)
	require.Len(t, dropped, 1)
	assert.Equal(t, "auto-old", dropped[0].RequestID)

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return len(rec.byType(EventCompleted)) == 2
	}, 2*time.Second, 5*time.Millisecond)
	completed := rec.byType(EventCompleted)
	assert.Equal(t, "manual", completed[0].RequestID)
	assert.Equal(t, "auto-new", completed[1].RequestID)
}

func TestAtMostOneActiveGeneration(t *testing.T) {
	var active, maxActive int32
	engine := &ai.StubEngine{Fn: func(req ai.Request) (string, error) {
		cur := atomic.AddInt32(&active, 1)
		for {
			prev := atomic.LoadInt32(&maxActive)
			if cur <= prev || atomic.CompareAndSwapInt32(&maxActive, prev, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return "ok", nil
	}}

	rec := &eventRecorder{}
	s := New(engine, 10, zap.NewNop().Sugar())
	s.OnEvent(rec.record)
	s.Start()
	defer s.Stop()

	for i := 0; i < 6; i++ {
		s.Enqueue(makeRequest(fmt.Sprintf("req-%d", i), PriorityAuto, time.Now()))
	}

	require.Eventually(t, func() bool {
		return len(rec.byType(EventCompleted)) == 6
	}, 3*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
}

func TestCancelRemovesPendingOnly(t *testing.T) {
	gate := make(chan struct{})
	engine := &ai.StubEngine{Fn: func(req ai.Request) (string, error) {
		<-gate
		return "ok", nil
	}}

	rec := &eventRecorder{}
	s := New(engine, 10, zap.NewNop().Sugar())
	s.OnEvent(rec.record)
	s.Start()

	s.Enqueue(makeRequest("running", PriorityManual, time.Now()))
	require.Eventually(t, func() bool {
		return len(rec.byType(EventStarted)) == 1
	}, time.Second, 5*time.Millisecond)

	s.Enqueue(makeRequest("pending", PriorityAuto, time.Now()))
	assert.True(t, s.Cancel("pending"))
	assert.False(t, s.Cancel("pending"))
	assert.False(t, s.Cancel("unknown"))
	// Уже выполняющийся запрос отмене не подлежит
	assert.False(t, s.Cancel("running"))

	close(gate)
	require.Eventually(t, func() bool {
		return len(rec.byType(EventCompleted)) == 1
	}, time.Second, 5*time.Millisecond)
	s.Stop()

	// Отменённый так и не начался
	for _, ev := range rec.all() {
		assert.NotEqual(t, "pending", ev.RequestID)
	}
}

func TestGenerationErrorEmitsFailed(t *testing.T) {
	engine := &ai.StubEngine{Err: errors.New("model unavailable")}
	rec := &eventRecorder{}
	s := New(engine, 10, zap.NewNop().Sugar())
	s.OnEvent(rec.record)
	s.Start()
	defer s.Stop()

	s.Enqueue(makeRequest("req", PriorityManual, time.Now()))

	require.Eventually(t, func() bool {
		return len(rec.byType(EventFailed)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "model unavailable", rec.byType(EventFailed)[0].Err)

	stats := s.Stats()
	assert.Equal(t, 0, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
}

func TestEmptyResultCountsAsFailure(t *testing.T) {
	engine := &ai.StubEngine{Reply: "   "}
	rec := &eventRecorder{}
	s := New(engine, 10, zap.NewNop().Sugar())
	s.OnEvent(rec.record)
	s.Start()
	defer s.Stop()

	s.Enqueue(makeRequest("req", PriorityManual, time.Now()))

	require.Eventually(t, func() bool {
		return len(rec.byType(EventFailed)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "no text generated", rec.byType(EventFailed)[0].Err)
}

func TestWarmupFailureShutsWorkerDown(t *testing.T) {
	engine := &ai.StubEngine{WarmupErr: errors.New("no api key")}
	rec := &eventRecorder{}
	s := New(engine, 10, zap.NewNop().Sugar())
	s.OnEvent(rec.record)
	s.Start()

	// Воркер умирает на прогреве; последующие запросы игнорируются
	require.Eventually(t, func() bool {
		s.Enqueue(makeRequest("req", PriorityManual, time.Now()))
		return s.Stats().Pending == 0
	}, time.Second, 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, rec.all())
}

func TestStopDiscardsPendingAndIsIdempotent(t *testing.T) {
	gate := make(chan struct{})
	engine := &ai.StubEngine{Fn: func(req ai.Request) (string, error) {
		<-gate
		return "ok", nil
	}}

	rec := &eventRecorder{}
	s := New(engine, 10, zap.NewNop().Sugar())
	s.OnEvent(rec.record)
	s.Start()

	s.Enqueue(makeRequest("running", PriorityManual, time.Now()))
	require.Eventually(t, func() bool {
		return len(rec.byType(EventStarted)) == 1
	}, time.Second, 5*time.Millisecond)
	s.Enqueue(makeRequest("doomed", PriorityAuto, time.Now()))

	// Stop отбрасывает остаток очереди ещё до того, как воркер освободится
	stopDone := make(chan struct{})
	go func() {
		s.Stop()
		close(stopDone)
	}()
	require.Eventually(t, func() bool {
		return s.Stats().Pending == 0
	}, time.Second, 5*time.Millisecond)

	close(gate)
	<-stopDone
	s.Stop()

	// Незапущенный остаток отброшен без терминальных событий
	for _, ev := range rec.all() {
		assert.NotEqual(t, "doomed", ev.RequestID)
	}

	s.Enqueue(makeRequest("late", PriorityManual, time.Now()))
	assert.Equal(t, 0, s.Stats().Pending)
}
