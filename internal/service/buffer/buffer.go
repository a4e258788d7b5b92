package buffer

import (
	"strings"
	"sync"
	"time"
)

// Stats — счётчики буфера для отображения/отладки.
type Stats struct {
	CurrentLength int
	SessionChars  int64
	LastUpdate    time.Time
}

// Buffer — потокобезопасное скользящее окно набранного текста.
// Синхронизирует то, что пользователь видит на экране, с тем, что уйдёт в модель:
// каждая физическая клавиша (включая backspace) отражается здесь один в один.
// Дебаунс: каждый Append/Backspace перезапускает единственный живой таймер;
// сработавший таймер вызывает колбэк со снимком текущего содержимого.
type Buffer struct {
	maxSize int
	delay   time.Duration
	minLen  int
	onReady func(string)

	mu           sync.Mutex
	content      []rune
	timer        *time.Timer
	lastUpdate   time.Time
	sessionChars int64
	closed       bool
}

// New создаёт буфер. onReady вызывается из горутины таймера после паузы
// в наборе длиной delay, если в буфере не меньше minLen символов.
func New(maxSize int, delay time.Duration, minLen int, onReady func(string)) *Buffer {
	if maxSize <= 0 {
		maxSize = 2000
	}
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &Buffer{
		maxSize: maxSize,
		delay:   delay,
		minLen:  minLen,
		onReady: onReady,
	}
}

// Append дописывает текст в конец окна; при переполнении отбрасывает
// самые старые символы, оставляя хвост. Перезапускает дебаунс.
func (b *Buffer) Append(text string) {
	if text == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.content = append(b.content, []rune(text)...)
	b.sessionChars += int64(len([]rune(text)))
	if len(b.content) > b.maxSize {
		// Оставляем последние maxSize символов
		b.content = append(b.content[:0], b.content[len(b.content)-b.maxSize:]...)
	}
	b.lastUpdate = time.Now()
	b.resetDebounceLocked()
}

// Backspace удаляет последний символ, если он есть. Критично для синхронизации:
// неотражённый backspace навсегда рассинхронизирует буфер с экраном.
func (b *Buffer) Backspace() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || len(b.content) == 0 {
		return
	}
	b.content = b.content[:len(b.content)-1]
	b.lastUpdate = time.Now()
	b.resetDebounceLocked()
}

// Clear стирает содержимое и отменяет ожидающий таймер.
// Вызывается при смене окна/роли и при паузе.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.content = b.content[:0]
	b.cancelTimerLocked()
}

// Snapshot возвращает копию содержимого без краевых пробелов; состояние не меняет.
func (b *Buffer) Snapshot() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.content))
}

// Stats возвращает текущие счётчики.
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		CurrentLength: len(b.content),
		SessionChars:  b.sessionChars,
		LastUpdate:    b.lastUpdate,
	}
}

// Close отменяет ожидающий таймер; дальнейшие Append/Backspace игнорируются.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cancelTimerLocked()
}

// resetDebounceLocked отменяет прежний таймер и взводит новый, если набрано
// достаточно символов. В каждый момент жив не более чем один таймер.
func (b *Buffer) resetDebounceLocked() {
	b.cancelTimerLocked()
	if len(b.content) < b.minLen {
		return
	}
	b.timer = time.AfterFunc(b.delay, b.fire)
}

func (b *Buffer) cancelTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// fire вызывается горутиной таймера, когда пользователь замолчал на delay.
func (b *Buffer) fire() {
	if b.onReady == nil {
		return
	}
	if ctx := b.Snapshot(); ctx != "" {
		b.onReady(ctx)
	}
}
