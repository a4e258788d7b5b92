package config

import (
	"flag"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	DebugMode bool `env:"DEBUG_MODE"` //Режим дебага

	// Буфер набранного текста
	BufferSize       int           `env:"BUFFER_SIZE"`        // Максимум символов в скользящем окне
	DebounceDelay    time.Duration `env:"DEBOUNCE_DELAY"`     // Пауза после последней клавиши до автоподсказки
	MinContextLength int           `env:"MIN_CONTEXT_LENGTH"` // Минимальная длина буфера для срабатывания дебаунса

	// Клавиатура
	KeyboardEnabled     bool     `env:"KEYBOARD_ENABLED"`              // Главный флаг мониторинга клавиатуры
	TriggerKeys         []string `env:"TRIGGER_KEYS" envSeparator:";"` // Клавиши мгновенного запроса (space;enter;tab)
	HotkeyQuickComplete string   `env:"HOTKEY_QUICK_COMPLETE"`         // Комбинация ручного дополнения, напр. ctrl+shift+c
	HotkeyToggle        string   `env:"HOTKEY_TOGGLE_ASSISTANT"`       // Комбинация включения/выключения ассистента

	// Контекст активного окна
	ContextCheckInterval time.Duration `env:"CONTEXT_CHECK_INTERVAL"` // Периодичность опроса заголовка активного окна
	RolesFile            string        `env:"ROLES_FILE"`             // Путь к YAML с таблицей ролей/персон

	// Генерация
	EngineService       string        `env:"ENGINE_SERVICE"`        // openai|stub
	Model               string        `env:"OPENAI_MODEL"`          // Имя модели для OpenAI-клиента
	QueueSize           int           `env:"GENERATION_QUEUE_SIZE"` // Ёмкость очереди генерации
	SuggestionCooldown  time.Duration `env:"SUGGESTION_COOLDOWN"`   // Минимальный интервал между автоподсказками
	CompletionMaxTokens int           `env:"COMPLETION_MAX_TOKENS"` // Лимит токенов для быстрых подсказок
	WritingMaxTokens    int           `env:"WRITING_MAX_TOKENS"`    // Лимит токенов для режима письма
}

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode:        false,
		BufferSize:       2000,
		DebounceDelay:    500 * time.Millisecond,
		MinContextLength: 10,

		KeyboardEnabled:     true,
		TriggerKeys:         []string{"space", "enter", "tab"},
		HotkeyQuickComplete: "ctrl+shift+c",
		HotkeyToggle:        "ctrl+shift+x",

		ContextCheckInterval: 2 * time.Second,
		RolesFile:            "roles.yaml",

		EngineService:       "openai",
		Model:               "", // пусто — дефолт клиента
		QueueSize:           10,
		SuggestionCooldown:  500 * time.Millisecond,
		CompletionMaxTokens: 64,
		WritingMaxTokens:    512,
	}
}

// NewConfig загружает конфигурацию приложения.
func NewConfig() *Config {
	_ = godotenv.Load()

	// Стартуем с дефолтов, затем перекрываем .env/окружением и флагами
	cfg := Defaults()
	_ = env.Parse(cfg)

	flag.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага для отображения доп. инфы")
	flag.IntVar(&cfg.BufferSize, "buffer-size", cfg.BufferSize, "максимум символов в скользящем окне буфера")
	flag.DurationVar(&cfg.DebounceDelay, "debounce-delay", cfg.DebounceDelay, "пауза после последней клавиши до автоподсказки, напр. 500ms")
	flag.IntVar(&cfg.MinContextLength, "min-context-length", cfg.MinContextLength, "минимальная длина буфера для срабатывания дебаунса")
	flag.BoolVar(&cfg.KeyboardEnabled, "keyboard-enabled", cfg.KeyboardEnabled, "включить мониторинг клавиатуры")
	// Принимаем список триггерных клавиш одной строкой, разделённой ';'
	var triggerKeysFlag string
	triggerKeysFlag = strings.Join(cfg.TriggerKeys, ";")
	flag.StringVar(&triggerKeysFlag, "trigger-keys", triggerKeysFlag, "клавиши мгновенного запроса, разделённые ';' (space;enter;tab)")
	flag.StringVar(&cfg.HotkeyQuickComplete, "hotkey-quick-complete", cfg.HotkeyQuickComplete, "комбинация ручного дополнения, напр. ctrl+shift+c")
	flag.StringVar(&cfg.HotkeyToggle, "hotkey-toggle-assistant", cfg.HotkeyToggle, "комбинация включения/выключения ассистента")
	flag.DurationVar(&cfg.ContextCheckInterval, "context-check-interval", cfg.ContextCheckInterval, "периодичность опроса активного окна, напр. 2s")
	flag.StringVar(&cfg.RolesFile, "roles-file", cfg.RolesFile, "путь к YAML с таблицей ролей")
	flag.StringVar(&cfg.EngineService, "engine-service", cfg.EngineService, "выбор движка генерации: openai|stub")
	flag.StringVar(&cfg.Model, "model", cfg.Model, "имя модели OpenAI (пусто — дефолт клиента)")
	flag.IntVar(&cfg.QueueSize, "generation-queue-size", cfg.QueueSize, "ёмкость очереди генерации")
	flag.DurationVar(&cfg.SuggestionCooldown, "suggestion-cooldown", cfg.SuggestionCooldown, "минимальный интервал между автоподсказками")
	flag.IntVar(&cfg.CompletionMaxTokens, "completion-max-tokens", cfg.CompletionMaxTokens, "лимит токенов для быстрых подсказок")
	flag.IntVar(&cfg.WritingMaxTokens, "writing-max-tokens", cfg.WritingMaxTokens, "лимит токенов для режима письма")
	flag.Parse()

	cfg.TriggerKeys = parseListFlag(triggerKeysFlag, []string{"space", "enter", "tab"})

	return cfg
}

// Hotkeys собирает карту действие → строка комбинации; пустые комбинации опускаются.
func (c *Config) Hotkeys() map[string]string {
	out := make(map[string]string, 2)
	if s := strings.TrimSpace(c.HotkeyQuickComplete); s != "" {
		out["quick_complete"] = s
	}
	if s := strings.TrimSpace(c.HotkeyToggle); s != "" {
		out["toggle_assistant"] = s
	}
	return out
}

// parseListFlag разбирает значение флага со списком, разделённым ';'
func parseListFlag(v string, def []string) []string {
	// Пустая строка → дефолт
	if v == "" {
		return def
	}
	parts := strings.Split(v, ";")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return def
	}
	return cleaned
}
