package watcher

import (
	"sync/atomic"
	"time"

	"InkSage/internal/persona"
	"InkSage/internal/service/window"

	"go.uber.org/zap"
)

// joinTimeout — предел ожидания остановки горутины опроса;
// зависший Stop не должен блокировать завершение процесса.
const joinTimeout = 2 * time.Second

// Watcher опрашивает заголовок активного окна и публикует смену роли.
// Событие уходит только когда меняется РОЛЬ, а не заголовок: смена вкладки
// внутри того же редактора не должна дёргать подписчиков.
type Watcher struct {
	interval  time.Duration
	inspector window.Inspector
	roles     *persona.Table
	logger    *zap.SugaredLogger
	onChange  func(windowTitle, role string)

	lastTitle string
	lastRole  string

	started atomic.Bool
	stopped atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

// New создаёт поллер. onChange вызывается из горутины опроса.
func New(interval time.Duration, inspector window.Inspector, roles *persona.Table, onChange func(string, string), logger *zap.SugaredLogger) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Watcher{
		interval:  interval,
		inspector: inspector,
		roles:     roles,
		logger:    logger,
		onChange:  onChange,
		lastRole:  roles.DefaultRole,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start запускает цикл опроса в отдельной горутине и немедленно возвращается.
func (w *Watcher) Start() {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run()
	w.logger.Infow("Context watcher started", "interval", w.interval.String())
}

// Stop останавливает опрос и дожидается горутины с ограниченным таймаутом.
// Безопасен при повторных вызовах и на не запущенном поллере.
func (w *Watcher) Stop() {
	if !w.started.Load() || !w.stopped.CompareAndSwap(false, true) {
		return
	}
	close(w.stop)
	select {
	case <-w.done:
	case <-time.After(joinTimeout):
		w.logger.Warnw("Context watcher did not stop in time", "timeout", joinTimeout.String())
	}
}

func (w *Watcher) run() {
	defer close(w.done)
	t := time.NewTicker(w.interval)
	defer t.Stop()

	// Первый опрос сразу, не дожидаясь интервала
	w.checkOnce()
	for {
		select {
		case <-w.stop:
			return
		case <-t.C:
			w.checkOnce()
		}
	}
}

// checkOnce — один тик опроса. Любая ошибка ОС здесь транзиентна:
// логируем и продолжаем, цикл не умирает.
func (w *Watcher) checkOnce() {
	title, err := w.inspector.ActiveTitle()
	if err != nil {
		w.logger.Warnw("Failed to read active window title", "error", err)
		return
	}
	if title == "" || title == w.lastTitle {
		return
	}
	w.lastTitle = title

	role := w.roles.Classify(title)
	if role == w.lastRole {
		return
	}
	w.lastRole = role
	w.logger.Infow("Context role changed", "role", role, "window", title)
	if w.onChange != nil {
		w.onChange(title, role)
	}
}
