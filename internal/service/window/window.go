package window

// Inspector отдаёт заголовок активного окна ОС.
// Пустая строка без ошибки — нормальная ситуация (фокус на рабочем столе).
type Inspector interface {
	ActiveTitle() (string, error)
}

// NewInspector возвращает платформенную реализацию (Windows) либо ошибку.
func NewInspector() (Inspector, error) { return newInspector() }
