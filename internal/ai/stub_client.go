package ai

import (
	"context"
	"time"
)

// StubEngine заглушка, которая не делает реальных запросов.
// Используется в тестах и для офлайн-запуска (-engine-service=stub).
type StubEngine struct {
	Reply     string
	Err       error
	WarmupErr error
	Delay     time.Duration
	// Fn при ненулевом значении полностью заменяет поведение Generate
	Fn func(req Request) (string, error)
}

func NewStubEngine() *StubEngine { return &StubEngine{Reply: "запрос получен"} }

func (s *StubEngine) Warmup(_ context.Context) error { return s.WarmupErr }

func (s *StubEngine) Generate(ctx context.Context, req Request) (string, error) {
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}
	if s.Fn != nil {
		return s.Fn(req)
	}
	return s.Reply, s.Err
}
