package scheduler

import (
	"container/heap"
	"context"
	"strings"
	"sync"
	"time"

	"InkSage/internal/ai"

	"go.uber.org/zap"
)

// EventType — тип события жизненного цикла запроса.
type EventType int

const (
	EventStarted EventType = iota + 1
	EventCompleted
	EventFailed
	EventDropped // вытеснен из очереди по ёмкости, обработан не будет
)

// Event — событие планировщика. Completed несёт обрезанный текст результата,
// Failed — описание ошибки.
type Event struct {
	Type      EventType
	RequestID string
	Kind      Kind
	Text      string
	Err       string
}

// Stats — счётчики для наблюдаемости; к контракту планирования не относятся.
type Stats struct {
	Processed       int
	Failed          int
	Pending         int
	TotalProcessing time.Duration
}

// Scheduler — ограниченная очередь с приоритетами и ровно один воркер.
// Один воркер гарантирует не более одной активной генерации: движок —
// последовательный ресурс, и только эта горутина его вызывает, поэтому
// блокировка вокруг самого движка не нужна.
//
// Переполнение разрешается вытеснением, а не отказом: наименее срочный,
// самый старый запрос выбрасывается (с событием Dropped), новый принимается
// всегда.
type Scheduler struct {
	engine   ai.Engine
	logger   *zap.SugaredLogger
	capacity int
	listener func(Event)

	mu      sync.Mutex
	cond    *sync.Cond
	items   requestQueue
	current *Request
	started bool
	stopped bool
	done    chan struct{}

	processed       int
	failed          int
	totalProcessing time.Duration
}

func New(engine ai.Engine, capacity int, logger *zap.SugaredLogger) *Scheduler {
	if capacity <= 0 {
		capacity = 10
	}
	s := &Scheduler{
		engine:   engine,
		logger:   logger,
		capacity: capacity,
		items:    make(requestQueue, 0, capacity),
		done:     make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	heap.Init(&s.items)
	return s
}

// OnEvent регистрирует слушателя событий. Вызывать до Start;
// слушатель вызывается из горутины воркера без удержания блокировки.
func (s *Scheduler) OnEvent(fn func(Event)) { s.listener = fn }

// Start запускает воркер. Повторный вызов — no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()
	go s.run()
	s.logger.Infow("Generation scheduler started", "capacity", s.capacity)
}

// Stop будит воркер и дожидается его завершения. Оставшиеся в очереди
// запросы отбрасываются без событий. Идемпотентен.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.cond.Broadcast()
	dropped := len(s.items)
	s.items = s.items[:0]
	s.mu.Unlock()

	<-s.done
	if dropped > 0 {
		s.logger.Infow("Scheduler stopped, pending requests discarded", "discarded", dropped)
	} else {
		s.logger.Infow("Scheduler stopped")
	}
}

// Enqueue принимает запрос. При заполненной очереди сперва вытесняется
// наименее срочный старейший запрос — новый принимается всегда.
func (s *Scheduler) Enqueue(req *Request) {
	var evicted *Request
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.logger.Warnw("Enqueue after stop ignored", "id", req.ID)
		return
	}
	if len(s.items) >= s.capacity {
		evicted = s.items.evictWorst()
	}
	heap.Push(&s.items, req)
	s.cond.Signal()
	s.mu.Unlock()

	if evicted != nil {
		s.logger.Warnw("Queue full, evicted request", "id", evicted.ID, "priority", evicted.Priority)
		s.notify(Event{Type: EventDropped, RequestID: evicted.ID, Kind: evicted.Kind})
	}
}

// Cancel убирает ещё не начатый запрос из очереди; сообщает, был ли найден.
// На уже выполняющийся запрос не влияет.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.removeByID(id) != nil
}

// Stats возвращает счётчики обработки.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Processed:       s.processed,
		Failed:          s.failed,
		Pending:         len(s.items),
		TotalProcessing: s.totalProcessing,
	}
}

// run — цикл воркера: разовая инициализация движка, затем обработка
// запросов по одному в порядке приоритет → возраст.
func (s *Scheduler) run() {
	defer close(s.done)

	// Ленивая инициализация под барьером: выполняется только этим потоком.
	// Провал терминален для воркера, но не для процесса.
	if err := s.engine.Warmup(context.Background()); err != nil {
		s.logger.Errorw("Engine warmup failed, generation worker is down", "error", err)
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		return
	}

	for {
		req := s.next()
		if req == nil {
			return
		}

		s.notify(Event{Type: EventStarted, RequestID: req.ID, Kind: req.Kind})
		start := time.Now()
		text, err := s.engine.Generate(context.Background(), ai.Request{
			Prompt:       req.Prompt,
			SystemPrompt: req.SystemPrompt,
			MaxTokens:    req.MaxTokens(),
		})
		elapsed := time.Since(start)
		text = strings.TrimSpace(text)

		s.mu.Lock()
		s.current = nil
		s.totalProcessing += elapsed
		if err != nil || text == "" {
			s.failed++
		} else {
			s.processed++
		}
		s.mu.Unlock()

		switch {
		case err != nil:
			s.logger.Warnw("Generation failed", "id", req.ID, "kind", req.Kind.String(), "duration", elapsed.String(), "error", err)
			s.notify(Event{Type: EventFailed, RequestID: req.ID, Kind: req.Kind, Err: err.Error()})
		case text == "":
			// Пустой результат трактуем как отказ: подписчику нечего показать
			s.notify(Event{Type: EventFailed, RequestID: req.ID, Kind: req.Kind, Err: "no text generated"})
		default:
			s.logger.Infow("Generation completed", "id", req.ID, "kind", req.Kind.String(), "duration", elapsed.String())
			s.notify(Event{Type: EventCompleted, RequestID: req.ID, Kind: req.Kind, Text: text})
		}
	}
}

// next блокируется на пустой очереди; nil означает остановку.
func (s *Scheduler) next() *Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.items) == 0 && !s.stopped {
		s.cond.Wait()
	}
	if s.stopped {
		return nil
	}
	req := heap.Pop(&s.items).(*Request)
	s.current = req
	return req
}

func (s *Scheduler) notify(ev Event) {
	if s.listener != nil {
		s.listener(ev)
	}
}
