package survey

import (
	"context"
	"errors"
	"fmt"

	"github.com/dominiq/maturity-backend/internal/entity"
	"github.com/looplab/fsm"
)

const (
	eventInitialize = "initialize"
	eventComplete   = "complete"
)

// lifecycle guards the session status transitions:
// UNINITIALIZED -> IN_PROGRESS -> COMPLETED. A failed or ERROR turn fires no event.
type lifecycle struct {
	machine *fsm.FSM
}

func newLifecycle(status entity.SessionStatus) *lifecycle {
	if status == "" {
		status = entity.SessionStatusUninitialized
	}

	return &lifecycle{
		machine: fsm.NewFSM(
			string(status),
			fsm.Events{
				{
					Name: eventInitialize,
					Src:  []string{string(entity.SessionStatusUninitialized)},
					Dst:  string(entity.SessionStatusInProgress),
				},
				{
					Name: eventComplete,
					Src:  []string{string(entity.SessionStatusInProgress)},
					Dst:  string(entity.SessionStatusCompleted),
				},
			},
			fsm.Callbacks{},
		),
	}
}

func (l *lifecycle) Status() entity.SessionStatus {
	return entity.SessionStatus(l.machine.Current())
}

func (l *lifecycle) Initialize(ctx context.Context) error {
	return l.fire(ctx, eventInitialize)
}

// Complete is a no-op on an already completed session
func (l *lifecycle) Complete(ctx context.Context) error {
	if l.machine.Is(string(entity.SessionStatusCompleted)) {
		return nil
	}
	return l.fire(ctx, eventComplete)
}

func (l *lifecycle) fire(ctx context.Context, event string) error {
	err := l.machine.Event(ctx, event)
	if err == nil {
		return nil
	}

	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}

	return fmt.Errorf("session lifecycle %s from %s: %w", event, l.machine.Current(), err)
}
