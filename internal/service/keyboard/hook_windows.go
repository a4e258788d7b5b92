//go:build windows

package keyboard

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
)

// Обёртки для функций, которых нет в lxn/win
var (
	user32                  = syscall.NewLazyDLL("user32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")

	kernel32               = syscall.NewLazyDLL("kernel32.dll")
	procGetCurrentThreadID = kernel32.NewProc("GetCurrentThreadId")
)

const (
	whKeyboardLL = 13
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
)

// kbdllHookStruct — KBDLLHOOKSTRUCT из WinAPI.
type kbdllHookStruct struct {
	VkCode    uint32
	ScanCode  uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

type winHook struct {
	onPress   func(Key)
	onRelease func(Key)
	threadID  uint32
	hhook     uintptr
	ready     chan error
	done      chan struct{}
}

func newHook() (Hook, error) { return &winHook{}, nil }

func (h *winHook) Start(onPress, onRelease func(Key)) error {
	h.onPress = onPress
	h.onRelease = onRelease
	h.ready = make(chan error, 1)
	h.done = make(chan struct{})
	go h.run()
	return <-h.ready
}

func (h *winHook) Stop() {
	if h.threadID == 0 {
		return
	}
	_, _, _ = procPostThreadMessageW.Call(uintptr(h.threadID), win.WM_QUIT, 0, 0)
	<-h.done
}

func (h *winHook) run() {
	// Низкоуровневый хук должен жить в закреплённом системном потоке
	// с собственным циклом сообщений
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.done)

	tid, _, _ := procGetCurrentThreadID.Call()
	h.threadID = uint32(tid)

	// Аргументы колбэка обязаны быть размером в машинное слово
	cb := syscall.NewCallback(func(nCode int, wParam uintptr, lParam uintptr) uintptr {
		if nCode >= 0 {
			info := (*kbdllHookStruct)(unsafe.Pointer(lParam))
			k := vkToKey(info.VkCode)
			switch wParam {
			case wmKeyDown, wmSysKeyDown:
				if h.onPress != nil {
					h.onPress(k)
				}
			case wmKeyUp, wmSysKeyUp:
				if h.onRelease != nil {
					h.onRelease(k)
				}
			}
		}
		r, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
		return r
	})

	hhook, _, callErr := procSetWindowsHookExW.Call(whKeyboardLL, cb, 0, 0)
	if hhook == 0 {
		h.ready <- fmt.Errorf("keyboard: SetWindowsHookEx failed: %v", callErr)
		return
	}
	h.hhook = hhook
	h.ready <- nil

	// Цикл сообщений до WM_QUIT из Stop
	msg := new(win.MSG)
	for {
		r := win.GetMessage(msg, 0, 0, 0)
		if r == 0 || r == -1 { // WM_QUIT или ошибка
			break
		}
		win.TranslateMessage(msg)
		win.DispatchMessage(msg)
	}
	_, _, _ = procUnhookWindowsHookEx.Call(h.hhook)
}

// vkToKey переводит виртуальный код клавиши в нормализованный Key.
// Буквы отдаются в нижнем регистре: для захвата контекста и хоткеев
// регистр не важен, а состояние Shift отражено в ModifierSet.
func vkToKey(vk uint32) Key {
	switch {
	case vk >= 0x30 && vk <= 0x39: // 0-9
		return Key{Char: rune('0' + vk - 0x30)}
	case vk >= 0x41 && vk <= 0x5A: // A-Z
		return Key{Char: rune('a' + vk - 0x41)}
	}
	switch vk {
	case win.VK_SPACE:
		return Key{Name: "space"}
	case win.VK_RETURN:
		return Key{Name: "enter"}
	case win.VK_TAB:
		return Key{Name: "tab"}
	case win.VK_BACK:
		return Key{Name: "backspace"}
	case win.VK_UP:
		return Key{Name: "up"}
	case win.VK_DOWN:
		return Key{Name: "down"}
	case win.VK_LEFT:
		return Key{Name: "left"}
	case win.VK_RIGHT:
		return Key{Name: "right"}
	case win.VK_HOME:
		return Key{Name: "home"}
	case win.VK_END:
		return Key{Name: "end"}
	case win.VK_LSHIFT, win.VK_SHIFT:
		return Key{Name: "shift_l"}
	case win.VK_RSHIFT:
		return Key{Name: "shift_r"}
	case win.VK_LCONTROL, win.VK_CONTROL:
		return Key{Name: "ctrl_l"}
	case win.VK_RCONTROL:
		return Key{Name: "ctrl_r"}
	case win.VK_LMENU, win.VK_MENU:
		return Key{Name: "alt_l"}
	case win.VK_RMENU:
		return Key{Name: "alt_r"}
	case win.VK_LWIN, win.VK_RWIN:
		return Key{Name: "cmd"}
	case win.VK_OEM_PERIOD:
		return Key{Char: '.'}
	case win.VK_OEM_COMMA:
		return Key{Char: ','}
	case win.VK_OEM_MINUS:
		return Key{Char: '-'}
	case win.VK_OEM_PLUS:
		return Key{Char: '='}
	case win.VK_OEM_1:
		return Key{Char: ';'}
	case win.VK_OEM_2:
		return Key{Char: '/'}
	case win.VK_OEM_3:
		return Key{Char: '`'}
	case win.VK_OEM_4:
		return Key{Char: '['}
	case win.VK_OEM_5:
		return Key{Char: '\\'}
	case win.VK_OEM_6:
		return Key{Char: ']'}
	case win.VK_OEM_7:
		return Key{Char: '\''}
	}
	// Непечатаемая клавиша без имени — консьюмер её игнорирует
	return Key{}
}
