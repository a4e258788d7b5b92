package keyboard

import (
	"strings"

	"go.uber.org/zap"
)

// combination — разобранная комбинация: триггерная клавиша плюс группы
// модификаторов. Группа удовлетворена, если зажат хотя бы один её член
// (например, "ctrl" — это либо левый, либо правый ctrl).
type combination struct {
	action string
	groups [][]string
	key    string
}

// modifierGroup раскрывает токен конфигурации в группу физических модификаторов.
func modifierGroup(token string) ([]string, bool) {
	switch token {
	case "ctrl":
		return []string{"ctrl_l", "ctrl_r"}, true
	case "shift":
		return []string{"shift_l", "shift_r"}, true
	case "alt":
		return []string{"alt_l", "alt_r"}, true
	case "cmd":
		return []string{"cmd"}, true
	case "ctrl_l", "ctrl_r", "shift_l", "shift_r", "alt_l", "alt_r":
		// запрошен конкретный модификатор
		return []string{token}, true
	}
	return nil, false
}

// parseHotkeys разбирает строки вида "ctrl+shift+c" один раз при старте.
// Неизвестный токен считается триггерной клавишей (последний не-модификатор
// побеждает); комбинация без триггера отбрасывается с предупреждением.
func parseHotkeys(raw map[string]string, logger *zap.SugaredLogger) []combination {
	out := make([]combination, 0, len(raw))
	for action, s := range raw {
		var groups [][]string
		trigger := ""
		for _, part := range strings.Split(s, "+") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if g, ok := modifierGroup(part); ok {
				groups = append(groups, g)
				continue
			}
			trigger = part
		}
		if trigger == "" {
			logger.Warnw("Skipping malformed hotkey", "action", action, "hotkey", s)
			continue
		}
		out = append(out, combination{action: action, groups: groups, key: trigger})
	}
	return out
}

// matches проверяет, завершает ли нажатая клавиша комбинацию при текущем
// наборе зажатых модификаторов.
func (c combination) matches(k Key, held map[string]struct{}) bool {
	if k.Char != 0 {
		if strings.ToLower(string(k.Char)) != c.key {
			return false
		}
	} else if k.Name != c.key {
		return false
	}
	// Каждая требуемая группа должна быть представлена хотя бы одним зажатым членом
	for _, group := range c.groups {
		ok := false
		for _, m := range group {
			if _, held := held[m]; held {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
