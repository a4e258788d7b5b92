package ai

import "context"

// Request — параметры одного запроса генерации.
// Пустой SystemPrompt означает режим быстрой подсказки (короткое строгое
// продолжение текста), непустой — режим письма с персоной.
type Request struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
}

// Engine — движок генерации текста. Все реализации должны быть взаимозаменяемыми.
// Вызывается строго из одного потока воркера планировщика, потокобезопасность
// внутри не требуется.
type Engine interface {
	// Warmup выполняет ленивую инициализацию; воркер вызывает его ровно один
	// раз перед входом в цикл. Ошибка терминальна для воркера, не для процесса.
	Warmup(ctx context.Context) error
	Generate(ctx context.Context, req Request) (string, error)
}
