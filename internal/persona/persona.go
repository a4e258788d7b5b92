package persona

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fallbackPrompt используется, когда ни роль, ни роль по умолчанию не дают промпта.
const fallbackPrompt = "You are a helpful AI assistant."

// Role — именованная персона: ключевые слова приложений и системный промпт.
type Role struct {
	Key          string   `yaml:"key"`
	Apps         []string `yaml:"apps"`
	SystemPrompt string   `yaml:"system_prompt"`
}

// Table — таблица ролей, загружается один раз при старте и дальше только читается.
// Порядок ролей значим: при классификации побеждает первая совпавшая.
type Table struct {
	DefaultRole string `yaml:"default_role"`
	Roles       []Role `yaml:"roles"`
}

// Load читает таблицу ролей из YAML-файла.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persona: read %s: %w", path, err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("persona: parse %s: %w", path, err)
	}
	if t.DefaultRole == "" {
		t.DefaultRole = "general"
	}
	return &t, nil
}

// Builtin возвращает минимальную встроенную таблицу на случай отсутствия файла.
func Builtin() *Table {
	return &Table{
		DefaultRole: "general",
		Roles: []Role{
			{
				Key:          "code",
				Apps:         []string{"Visual Studio Code", "PyCharm", "IntelliJ", "Sublime", "Vim"},
				SystemPrompt: "You are an expert programmer. Continue the code or comment naturally.",
			},
			{
				Key:          "professional",
				Apps:         []string{"Outlook", "Gmail", "Word", "Teams", "Slack"},
				SystemPrompt: "You are a professional writing assistant. Keep the tone formal and concise.",
			},
			{
				Key:          "general",
				Apps:         []string{},
				SystemPrompt: "You are a smart sentence completer. Continue the user's text naturally.",
			},
		},
	}
}

// Classify определяет роль по заголовку окна: первая роль, чьё ключевое слово
// входит в заголовок без учёта регистра, побеждает; без совпадений — роль по умолчанию.
func (t *Table) Classify(windowTitle string) string {
	title := strings.ToLower(windowTitle)
	for _, r := range t.Roles {
		for _, app := range r.Apps {
			if app == "" {
				continue
			}
			if strings.Contains(title, strings.ToLower(app)) {
				return r.Key
			}
		}
	}
	return t.DefaultRole
}

// Prompt возвращает системный промпт роли с каскадом запасных вариантов:
// роль → роль по умолчанию → встроенный промпт.
func (t *Table) Prompt(role string) string {
	if p, ok := t.lookup(role); ok && p != "" {
		return p
	}
	if role != t.DefaultRole {
		if p, ok := t.lookup(t.DefaultRole); ok && p != "" {
			return p
		}
	}
	return fallbackPrompt
}

func (t *Table) lookup(role string) (string, bool) {
	for _, r := range t.Roles {
		if r.Key == role {
			return r.SystemPrompt, true
		}
	}
	return "", false
}
