//go:build windows

package window

import (
	"strings"
	"syscall"

	"github.com/lxn/win"
)

type winInspector struct{}

func newInspector() (Inspector, error) { return &winInspector{}, nil }

func (w *winInspector) ActiveTitle() (string, error) {
	hwnd := win.GetForegroundWindow()
	if hwnd == 0 {
		// Активного окна может не быть (рабочий стол, экран блокировки)
		return "", nil
	}
	var buf [512]uint16
	n := win.GetWindowText(hwnd, &buf[0], int32(len(buf)))
	if n <= 0 {
		return "", nil
	}
	return strings.TrimSpace(syscall.UTF16ToString(buf[:n])), nil
}
