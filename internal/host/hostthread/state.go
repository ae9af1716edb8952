package hostthread

import (
	"context"

	"github.com/robbyt/go-supervisor/supervisor"

	"github.com/Sey56/Paracore-sub001/internal/server/finitestate"
)

var _ supervisor.Stateable = (*Runner)(nil)

func (r *Runner) GetState() string {
	return r.fsm.GetState()
}

func (r *Runner) GetStateChan(ctx context.Context) <-chan string {
	return r.fsm.GetStateChan(ctx)
}

func (r *Runner) IsRunning() bool {
	return r.fsm.GetState() == finitestate.StatusRunning
}
