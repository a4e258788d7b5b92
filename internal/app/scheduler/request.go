package scheduler

import "time"

// Kind — назначение запроса; по нему оркестратор решает, куда направить результат.
type Kind int

const (
	KindCompletion Kind = iota + 1 // автоподсказка/быстрое дополнение
	KindWriting                    // письмо/рерайт из диалогов
)

func (k Kind) String() string {
	switch k {
	case KindCompletion:
		return "completion"
	case KindWriting:
		return "writing"
	}
	return "unknown"
}

// Приоритеты: меньше — срочнее.
const (
	PriorityManual = 1 // явный запрос пользователя (триггерная клавиша, хоткей, диалог)
	PriorityAuto   = 2 // фоновая автоподсказка по дебаунсу
)

// Request — неизменяемый пакет запроса генерации. После Enqueue им владеет
// исключительно планировщик; снаружи остаётся только ID для отслеживания.
type Request struct {
	ID           string
	Prompt       string
	SystemPrompt string
	Kind         Kind
	Priority     int
	CreatedAt    time.Time
	Parameters   map[string]any
}

// MaxTokens достаёт лимит токенов из параметров; ноль — не задан.
func (r *Request) MaxTokens() int {
	if r.Parameters == nil {
		return 0
	}
	if v, ok := r.Parameters["max_tokens"].(int); ok {
		return v
	}
	return 0
}
