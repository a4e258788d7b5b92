package keyboard

import "time"

// Key — нормализованное представление клавиши от платформенного хука.
// Для печатаемых клавиш заполнен Char (в нижнем регистре), Name пуст.
// Для спецклавиш заполнено Name: "enter", "space", "tab", "backspace",
// "up", "down", "left", "right", "home", "end", модификаторы "ctrl_l",
// "ctrl_r", "shift_l", "shift_r", "alt_l", "alt_r", "cmd".
type Key struct {
	Name string
	Char rune
}

type eventKind int

const (
	eventPress eventKind = iota + 1
	eventRelease
)

// event — сырое событие из producer-колбэка; логика применяется только консьюмером.
type event struct {
	kind eventKind
	key  Key
	at   time.Time
}

// Hook — платформенный перехватчик клавиатуры. Колбэки вызываются из потока
// хука ОС и обязаны возвращаться мгновенно.
type Hook interface {
	Start(onPress, onRelease func(Key)) error
	Stop()
}

// NewHook возвращает платформенную реализацию (Windows) либо ошибку.
func NewHook() (Hook, error) { return newHook() }

// keyText возвращает литеральное представление клавиши для буфера,
// пустую строку для непечатаемых.
func keyText(k Key) string {
	if k.Char != 0 {
		return string(k.Char)
	}
	switch k.Name {
	case "space":
		return " "
	case "enter":
		return "\n"
	case "tab":
		return "\t"
	}
	return ""
}

// isModifier сообщает, является ли клавиша модификатором.
func isModifier(name string) bool {
	switch name {
	case "ctrl_l", "ctrl_r", "shift_l", "shift_r", "alt_l", "alt_r", "cmd":
		return true
	}
	return false
}

// isNavigation: перемещение курсора ломает позиционные предположения о том,
// какой текст стоит перед кареткой, поэтому такие клавиши сбрасывают буфер.
func isNavigation(name string) bool {
	switch name {
	case "up", "down", "left", "right", "home", "end":
		return true
	}
	return false
}
