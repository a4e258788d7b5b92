//go:build !windows

package keyboard

import "errors"

func newHook() (Hook, error) {
	return nil, errors.New("keyboard: global keyboard hook unavailable on this platform")
}
