//go:build !windows

package window

import "errors"

func newInspector() (Inspector, error) {
	return nil, errors.New("window: active window inspection unavailable on this platform")
}
