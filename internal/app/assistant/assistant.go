package assistant

import (
	"sync"
	"time"

	"InkSage/internal/ai"
	"InkSage/internal/app/scheduler"
	"InkSage/internal/config"
	"InkSage/internal/persona"
	"InkSage/internal/service/buffer"
	"InkSage/internal/service/keyboard"
	"InkSage/internal/service/watcher"
	"InkSage/internal/service/window"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Presenter — слой отображения. Реализации живут снаружи ядра (трей, окна);
// ядро только шлёт события и ничего не знает про их визуализацию.
type Presenter interface {
	StatusChanged(status string)
	SuggestionReady(text string)
	GenerationStarted()
	GenerationCompleted()
	ErrorOccurred(message string)
}

// Assistant — оркестратор конвейера: соединяет буфер, клавиатуру, поллер
// контекста и планировщик. Вся проводка колбэков принадлежит ему —
// компоненты друг о друге не знают.
//
// Таблица активных запросов хранит только id → kind: сам запрос после
// Enqueue принадлежит планировщику. Запись удаляется ровно один раз —
// первым же терминальным событием (completed/failed/dropped).
type Assistant struct {
	cfg       *config.Config
	logger    *zap.SugaredLogger
	roles     *persona.Table
	presenter Presenter

	buf     *buffer.Buffer
	monitor *keyboard.Monitor
	watch   *watcher.Watcher
	sched   *scheduler.Scheduler

	mu          sync.Mutex
	active      map[string]scheduler.Kind
	currentRole string
	paused      bool
	enabled     bool
	lastAuto    time.Time
}

// New собирает конвейер. Никакой компонент не запускается до Start.
func New(cfg *config.Config, roles *persona.Table, engine ai.Engine, hook keyboard.Hook, inspector window.Inspector, presenter Presenter, logger *zap.SugaredLogger) *Assistant {
	a := &Assistant{
		cfg:         cfg,
		logger:      logger,
		roles:       roles,
		presenter:   presenter,
		active:      make(map[string]scheduler.Kind),
		currentRole: roles.DefaultRole,
		enabled:     true,
	}

	a.buf = buffer.New(cfg.BufferSize, cfg.DebounceDelay, cfg.MinContextLength, a.handleBufferReady)
	a.monitor = keyboard.New(a.buf, hook, cfg.TriggerKeys, cfg.Hotkeys(), logger)
	a.monitor.OnManualTrigger(a.handleManualTrigger)
	a.monitor.OnHotkey(a.handleHotkey)
	a.watch = watcher.New(cfg.ContextCheckInterval, inspector, roles, a.handleRoleChange, logger)
	a.sched = scheduler.New(engine, cfg.QueueSize, logger)
	a.sched.OnEvent(a.handleSchedulerEvent)

	return a
}

// Start запускает фоновые компоненты.
func (a *Assistant) Start() error {
	a.sched.Start()
	a.watch.Start()
	if a.cfg.KeyboardEnabled {
		if err := a.monitor.Start(); err != nil {
			return err
		}
	}
	a.status("Monitoring")
	return nil
}

// Stop гасит компоненты в обратном порядке. Идемпотентен.
func (a *Assistant) Stop() {
	a.monitor.Stop()
	a.watch.Stop()
	a.sched.Stop()
	a.buf.Close()
}

// Pause приостанавливает захват текста (хоткеи остаются живыми) и стирает буфер.
func (a *Assistant) Pause() {
	a.mu.Lock()
	a.paused = true
	a.mu.Unlock()
	a.monitor.Pause()
	a.buf.Clear()
	a.status("Paused")
}

// Resume возобновляет мониторинг, если ассистент включён.
func (a *Assistant) Resume() {
	a.mu.Lock()
	a.paused = false
	enabled := a.enabled
	a.mu.Unlock()
	if enabled {
		a.monitor.Resume()
		a.status("Monitoring")
	}
}

// Toggle включает/выключает ассистента целиком (хоткей toggle_assistant).
func (a *Assistant) Toggle() {
	a.mu.Lock()
	a.enabled = !a.enabled
	enabled := a.enabled
	a.mu.Unlock()
	if enabled {
		a.monitor.Resume()
		a.status("Assistant enabled")
	} else {
		a.monitor.Pause()
		a.buf.Clear()
		a.status("Assistant disabled")
	}
}

// TriggerCompletion — явный запрос дополнения по текущему буферу
// (хоткей quick_complete); кулдаун не применяется.
func (a *Assistant) TriggerCompletion() {
	if snapshot := a.buf.Snapshot(); snapshot != "" {
		a.request(snapshot, scheduler.PriorityManual)
	}
}

// Scheduler отдаёт планировщик диалоговым потребителям: они ставят свои
// Writing-запросы напрямую и сами отслеживают свои id по событиям.
func (a *Assistant) Scheduler() *scheduler.Scheduler { return a.sched }

// CurrentRole возвращает текущую роль контекста.
func (a *Assistant) CurrentRole() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentRole
}

// --- Колбэки компонентов ---

// handleBufferReady — дебаунс отработал: пользователь замолчал.
// Автоподсказки дросселируются кулдауном.
func (a *Assistant) handleBufferReady(text string) {
	a.mu.Lock()
	if a.paused || !a.enabled {
		a.mu.Unlock()
		return
	}
	if time.Since(a.lastAuto) < a.cfg.SuggestionCooldown {
		a.mu.Unlock()
		return
	}
	a.lastAuto = time.Now()
	a.mu.Unlock()

	a.request(text, scheduler.PriorityAuto)
}

// handleManualTrigger — триггерная клавиша: кулдаун не применяется,
// приоритет выше автоматического.
func (a *Assistant) handleManualTrigger(text string) {
	a.mu.Lock()
	skip := a.paused || !a.enabled
	a.mu.Unlock()
	if skip || text == "" {
		return
	}
	a.request(text, scheduler.PriorityManual)
}

func (a *Assistant) handleHotkey(action string) {
	switch action {
	case "toggle_assistant":
		a.Toggle()
	case "quick_complete":
		a.TriggerCompletion()
	default:
		a.logger.Warnw("Unknown hotkey action", "action", action)
	}
}

// handleRoleChange — смена роли активного окна. Запросы в полёте не отменяем:
// они уже помечены персоной своего времени и остаются валидными.
func (a *Assistant) handleRoleChange(windowTitle, role string) {
	a.mu.Lock()
	a.currentRole = role
	a.mu.Unlock()
	// Контекст сменился — набранное в прошлом окне больше не контекст
	a.buf.Clear()
	a.status("Role: " + role)
}

func (a *Assistant) request(text string, priority int) {
	a.mu.Lock()
	role := a.currentRole
	a.mu.Unlock()

	req := &scheduler.Request{
		ID:           uuid.NewString(),
		Prompt:       text,
		SystemPrompt: a.roles.Prompt(role),
		Kind:         scheduler.KindCompletion,
		Priority:     priority,
		CreatedAt:    time.Now(),
		Parameters:   map[string]any{"max_tokens": a.cfg.CompletionMaxTokens},
	}

	// Сначала регистрируем, затем ставим в очередь: терминальное событие
	// не должно обогнать запись в таблице
	a.mu.Lock()
	a.active[req.ID] = req.Kind
	a.mu.Unlock()

	a.sched.Enqueue(req)
	a.status("Thinking...")
}

// handleSchedulerEvent маршрутизирует исходы генерации. Неотслеживаемые id —
// чужие запросы (диалоги), их игнорируем: диалоги слушают те же события сами.
func (a *Assistant) handleSchedulerEvent(ev scheduler.Event) {
	switch ev.Type {
	case scheduler.EventStarted:
		if a.isTracked(ev.RequestID) && a.presenter != nil {
			a.presenter.GenerationStarted()
		}
	case scheduler.EventCompleted:
		kind, ok := a.takeActive(ev.RequestID)
		if !ok {
			return
		}
		if kind == scheduler.KindCompletion {
			if ev.Text != "" {
				if a.presenter != nil {
					a.presenter.SuggestionReady(ev.Text)
				}
				a.status("Ready")
			} else {
				a.status("No suggestion")
			}
		}
		if a.presenter != nil {
			a.presenter.GenerationCompleted()
		}
	case scheduler.EventFailed:
		if _, ok := a.takeActive(ev.RequestID); !ok {
			return
		}
		a.status("Error")
		if a.presenter != nil {
			a.presenter.ErrorOccurred(ev.Err)
		}
	case scheduler.EventDropped:
		// Вытеснение по ёмкости: снимаем с отслеживания, чтобы таблица не текла
		if _, ok := a.takeActive(ev.RequestID); ok {
			a.logger.Infow("Tracked request evicted from queue", "id", ev.RequestID)
		}
	}
}

// takeActive удаляет запись и возвращает её — двойная обработка id
// структурно невозможна.
func (a *Assistant) takeActive(id string) (scheduler.Kind, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	kind, ok := a.active[id]
	if ok {
		delete(a.active, id)
	}
	return kind, ok
}

func (a *Assistant) isTracked(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.active[id]
	return ok
}

func (a *Assistant) status(msg string) {
	if a.presenter != nil {
		a.presenter.StatusChanged(msg)
	}
}
