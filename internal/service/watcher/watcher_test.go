package watcher

import (
	"errors"
	"sync"
	"testing"
	"time"

	"InkSage/internal/persona"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedInspector отдаёт заголовки по очереди, задерживаясь на последнем.
type scriptedInspector struct {
	mu     sync.Mutex
	titles []string
	errs   []error
	idx    int
}

func (s *scriptedInspector) ActiveTitle() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.idx
	if i >= len(s.titles) {
		i = len(s.titles) - 1
	} else {
		s.idx++
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.titles[i], err
}

type changeRecorder struct {
	mu      sync.Mutex
	changes [][2]string
}

func (r *changeRecorder) onChange(title, role string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, [2]string{title, role})
}

func (r *changeRecorder) all() [][2]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][2]string, len(r.changes))
	copy(out, r.changes)
	return out
}

func TestEmitsOnRoleChangeOnly(t *testing.T) {
	insp := &scriptedInspector{titles: []string{
		"main.go - Visual Studio Code", // code
		"util.go - Visual Studio Code", // тот же редактор, другая вкладка — без события
		"Inbox - Outlook",              // professional
		"Inbox - Outlook",              // без изменений
	}}
	rec := &changeRecorder{}
	w := New(5*time.Millisecond, insp, persona.Builtin(), rec.onChange, zap.NewNop().Sugar())
	w.Start()
	defer w.Stop()

	require.Eventually(t, func() bool {
		return len(rec.all()) >= 2
	}, time.Second, 5*time.Millisecond)
	w.Stop()

	changes := rec.all()
	require.Len(t, changes, 2)
	assert.Equal(t, [2]string{"main.go - Visual Studio Code", "code"}, changes[0])
	assert.Equal(t, [2]string{"Inbox - Outlook", "professional"}, changes[1])
}

func TestEmptyTitleIsIgnored(t *testing.T) {
	insp := &scriptedInspector{titles: []string{"", "", "notes.txt - Vim"}}
	rec := &changeRecorder{}
	w := New(5*time.Millisecond, insp, persona.Builtin(), rec.onChange, zap.NewNop().Sugar())
	w.Start()
	defer w.Stop()

	require.Eventually(t, func() bool {
		return len(rec.all()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "code", rec.all()[0][1])
}

func TestInspectorErrorDoesNotKillLoop(t *testing.T) {
	insp := &scriptedInspector{
		titles: []string{"whatever", "Inbox - Gmail"},
		errs:   []error{errors.New("winapi failure"), nil},
	}
	rec := &changeRecorder{}
	w := New(5*time.Millisecond, insp, persona.Builtin(), rec.onChange, zap.NewNop().Sugar())
	w.Start()
	defer w.Stop()

	require.Eventually(t, func() bool {
		return len(rec.all()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "professional", rec.all()[0][1])
}

func TestStopJoinsAndIsIdempotent(t *testing.T) {
	insp := &scriptedInspector{titles: []string{""}}
	w := New(5*time.Millisecond, insp, persona.Builtin(), nil, zap.NewNop().Sugar())
	w.Start()
	w.Stop()
	w.Stop()

	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("watcher goroutine did not exit")
	}
}

func TestStopBeforeStartIsNoop(t *testing.T) {
	insp := &scriptedInspector{titles: []string{""}}
	w := New(5*time.Millisecond, insp, persona.Builtin(), nil, zap.NewNop().Sugar())
	w.Stop() // не должен паниковать или блокироваться
}
