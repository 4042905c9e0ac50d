package dispatch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Task identifies one detached background task.
type Task struct {
	ID      string
	Name    string
	Started time.Time
}

// Spawner starts detached tasks, one goroutine per call with no pooling.
//
// There is no join or cancel path: a task runs to completion and its outcome
// is delivered only through its own side effects and the optional OnFinish
// observer. The context handed to tasks is never cancelled.
type Spawner struct {
	ctx      context.Context
	inFlight atomic.Int64
	started  atomic.Int64

	// OnFinish, if set before the first Go, is called from the task's
	// goroutine after it returns.
	OnFinish func(task Task, err error)
}

// NewSpawner creates a Spawner.
func NewSpawner() *Spawner {
	return &Spawner{ctx: context.Background()}
}

// Go starts fn on a new goroutine and returns immediately.
// Errors and panics from fn are logged, never propagated.
func (s *Spawner) Go(name string, fn func(ctx context.Context) error) Task {
	task := Task{
		ID:      uuid.NewString(),
		Name:    name,
		Started: time.Now(),
	}

	s.inFlight.Add(1)
	s.started.Add(1)

	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
			s.inFlight.Add(-1)
			s.finish(task, err)
		}()

		log.WithFields(log.Fields{"task": task.ID, "name": task.Name}).Debug("Task started")
		err = fn(s.ctx)
	}()

	return task
}

func (s *Spawner) finish(task Task, err error) {
	entry := log.WithFields(log.Fields{
		"task":    task.ID,
		"name":    task.Name,
		"elapsed": time.Since(task.Started).Round(time.Millisecond),
	})
	if err != nil {
		entry.WithError(err).Warn("Task failed")
	} else {
		entry.Debug("Task finished")
	}

	if s.OnFinish != nil {
		s.OnFinish(task, err)
	}
}

// InFlight returns the number of tasks currently running.
func (s *Spawner) InFlight() int64 {
	return s.inFlight.Load()
}

// Started returns the number of tasks started since creation.
func (s *Spawner) Started() int64 {
	return s.started.Load()
}
