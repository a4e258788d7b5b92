package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"InkSage/internal/ai"
	"InkSage/internal/app/assistant"
	"InkSage/internal/config"
	"InkSage/internal/persona"
	"InkSage/internal/service/keyboard"
	"InkSage/internal/service/window"

	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"
)

func main() {

	cfg := config.NewConfig()
	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	sugar.Infow(
		"Starting app",
		"DebugMode", cfg.DebugMode,
		"EngineService", cfg.EngineService,
		"KeyboardEnabled", cfg.KeyboardEnabled,
	)

	// Таблица ролей: файл опционален, без него работаем на встроенных ролях
	roles, err := persona.Load(cfg.RolesFile)
	if err != nil {
		sugar.Warnw("Roles file not loaded, using builtin roles", "file", cfg.RolesFile, "error", err)
		roles = persona.Builtin()
	}

	var engine ai.Engine
	switch cfg.EngineService {
	case "openai":
		// реальный клиент OpenAI (использует переменные окружения, напр. OPENAI_API_KEY)
		oClient := openai.NewClient()
		engine = ai.NewOpenAIEngine(&oClient, cfg.Model)
	default:
		sugar.Infow("Using stub engine", "service", cfg.EngineService)
		engine = ai.NewStubEngine()
	}

	hook, err := keyboard.NewHook()
	if err != nil {
		sugar.Warnw("Keyboard hook unavailable, text capture disabled", "error", err)
		cfg.KeyboardEnabled = false
	}

	inspector, err := window.NewInspector()
	if err != nil {
		sugar.Warnw("Window inspection unavailable, role stays default", "error", err)
		inspector = blindInspector{}
	}

	app := assistant.New(cfg, roles, engine, hook, inspector, &consolePresenter{sugar: sugar}, sugar)
	if err := app.Start(); err != nil {
		sugar.Errorw("Failed to start assistant", "error", err)
		return
	}

	// Graceful shutdown on Ctrl+C / SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	app.Stop()
	sugar.Infow("Assistant stopped")
}

// blindInspector — заглушка для платформ без интроспекции окон:
// пустой заголовок держит роль по умолчанию.
type blindInspector struct{}

func (blindInspector) ActiveTitle() (string, error) { return "", nil }

// consolePresenter — консольное представление: подсказки в stdout,
// статусы в лог. Трея и окон здесь нет.
type consolePresenter struct {
	sugar *zap.SugaredLogger
}

func (p *consolePresenter) StatusChanged(status string) {
	p.sugar.Infow("Status", "status", status)
}

func (p *consolePresenter) SuggestionReady(text string) {
	fmt.Printf("--- suggestion ---\n%s\n------------------\n", text)
}

func (p *consolePresenter) GenerationStarted() {}

func (p *consolePresenter) GenerationCompleted() {}

func (p *consolePresenter) ErrorOccurred(message string) {
	p.sugar.Warnw("Generation error", "message", message)
}
