package keyboard

import (
	"sync/atomic"
	"time"

	"InkSage/internal/service/buffer"

	"go.uber.org/zap"
)

// queueCap — ёмкость очереди сырых событий между producer и consumer.
// При переполнении producer дропает событие, но никогда не блокирует хук ОС.
const queueCap = 1024

// Monitor — процессор клавиатуры по схеме producer/consumer.
// Producer (колбэк хука ОС) только кладёт сырые события в очередь;
// вся логика — модификаторы, хоткеи, захват текста — выполняется
// консьюмером в отдельной горутине строго в порядке поступления.
type Monitor struct {
	logger      *zap.SugaredLogger
	buf         *buffer.Buffer
	hook        Hook
	triggerKeys map[string]struct{}
	combos      []combination

	events chan event
	// mods принадлежит только горутине консьюмера, не разделяется
	mods map[string]struct{}

	onManualTrigger func(context string)
	onHotkey        func(action string)

	running atomic.Bool
	paused  atomic.Bool
	stopped atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

// New создаёт монитор. Строки хоткеев разбираются один раз здесь.
func New(buf *buffer.Buffer, hook Hook, triggerKeys []string, hotkeys map[string]string, logger *zap.SugaredLogger) *Monitor {
	tk := make(map[string]struct{}, len(triggerKeys))
	for _, k := range triggerKeys {
		tk[k] = struct{}{}
	}
	return &Monitor{
		logger:      logger,
		buf:         buf,
		hook:        hook,
		triggerKeys: tk,
		combos:      parseHotkeys(hotkeys, logger),
		events:      make(chan event, queueCap),
		mods:        make(map[string]struct{}),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// OnManualTrigger регистрирует колбэк мгновенного запроса (триггерные клавиши).
// Вызывать до Start.
func (m *Monitor) OnManualTrigger(fn func(context string)) { m.onManualTrigger = fn }

// OnHotkey регистрирует колбэк действий хоткеев. Вызывать до Start.
func (m *Monitor) OnHotkey(fn func(action string)) { m.onHotkey = fn }

// Start регистрирует хук ОС и запускает консьюмер.
func (m *Monitor) Start() error {
	if !m.running.CompareAndSwap(false, true) {
		return nil
	}
	if err := m.hook.Start(m.onPress, m.onRelease); err != nil {
		m.running.Store(false)
		return err
	}
	go m.consume()
	m.logger.Infow("Keyboard monitor started", "hotkeys", len(m.combos))
	return nil
}

// Stop снимает хук, останавливает консьюмер и вычищает очередь.
// События, попавшие в очередь после Stop, не обрабатываются. Идемпотентен.
func (m *Monitor) Stop() {
	if !m.running.CompareAndSwap(true, false) {
		return
	}
	if !m.stopped.CompareAndSwap(false, true) {
		return
	}
	m.hook.Stop()
	close(m.stop)
	<-m.done
	// Сливаем остатки очереди, чтобы ничего не «дострелило» после остановки
	for {
		select {
		case <-m.events:
		default:
			m.logger.Infow("Keyboard monitor stopped")
			return
		}
	}
}

// Pause отключает захват текста; хоткеи продолжают работать.
func (m *Monitor) Pause() { m.paused.Store(true) }

// Resume включает захват текста обратно.
func (m *Monitor) Resume() { m.paused.Store(false) }

// --- Producer: вызывается из потока хука ОС, никакой логики inline ---

func (m *Monitor) onPress(k Key) {
	if !m.running.Load() {
		return
	}
	select {
	case m.events <- event{kind: eventPress, key: k, at: time.Now()}:
	default:
		// очередь переполнена — дропаем, хук ОС ждать не может
	}
}

func (m *Monitor) onRelease(k Key) {
	if !m.running.Load() {
		return
	}
	select {
	case m.events <- event{kind: eventRelease, key: k, at: time.Now()}:
	default:
	}
}

// --- Consumer ---

func (m *Monitor) consume() {
	defer close(m.done)
	for {
		select {
		case <-m.stop:
			return
		case ev := <-m.events:
			switch ev.kind {
			case eventPress:
				m.handlePress(ev.key)
			case eventRelease:
				m.handleRelease(ev.key)
			}
		}
	}
}

func (m *Monitor) handlePress(k Key) {
	// 1. Модификаторы
	if isModifier(k.Name) {
		m.mods[k.Name] = struct{}{}
	}

	// 2. Хоткеи проверяются до любого захвата текста; совпавшая комбинация
	// не попадает в буфер
	for _, c := range m.combos {
		if c.matches(k, m.mods) {
			if m.onHotkey != nil {
				m.onHotkey(c.action)
			}
			return
		}
	}

	if m.paused.Load() {
		return
	}

	// 3. Навигация сбрасывает буфер
	if isNavigation(k.Name) {
		m.buf.Clear()
		return
	}

	// 4. Захват текста
	if text := keyText(k); text != "" {
		m.buf.Append(text)
		if m.isTriggerKey(k) {
			// Триггерная клавиша — явный запрос с низкой задержкой, мимо дебаунса
			if snapshot := m.buf.Snapshot(); snapshot != "" && m.onManualTrigger != nil {
				m.onManualTrigger(snapshot)
			}
		}
		return
	}
	if k.Name == "backspace" {
		m.buf.Backspace()
	}
}

func (m *Monitor) handleRelease(k Key) {
	delete(m.mods, k.Name)
}

func (m *Monitor) isTriggerKey(k Key) bool {
	if k.Name == "" {
		return false
	}
	_, ok := m.triggerKeys[k.Name]
	return ok
}
