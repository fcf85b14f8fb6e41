// Package anim drives time-based transitions from a host's animation frames.
//
// A Ticker owns a set of Tasks. The host calls Tick once per frame with the
// frame time; each task computes its eased progress from the time elapsed
// since the first frame it saw and hands it to its step func. The last step
// of a task that runs to completion always receives exactly 1. Cancel
// removes a task at once; its step is never called again.
package anim

import (
	"slices"
	"time"
)

type Task struct {
	ticker   *Ticker
	duration time.Duration
	easing   Easing
	step     func(t float64)
	done     func()

	start    time.Time
	started  bool
	finished bool
}

// Cancel stops the task without a final step. Safe on nil and finished tasks.
func (t *Task) Cancel() {
	if t == nil || t.finished {
		return
	}
	t.finished = true
	t.ticker.remove(t)
}

// Active reports whether the task is still scheduled.
func (t *Task) Active() bool {
	return t != nil && !t.finished
}

type Ticker struct {
	tasks []*Task
}

func NewTicker() *Ticker {
	return &Ticker{}
}

// Start schedules a transition. step receives eased progress in [0, 1];
// done, if non-nil, runs after the final step.
func (tk *Ticker) Start(d time.Duration, easing Easing, step func(t float64), done func()) *Task {
	task := &Task{
		ticker:   tk,
		duration: d,
		easing:   easing,
		step:     step,
		done:     done,
	}
	tk.tasks = append(tk.tasks, task)
	return task
}

// Tick advances every task to now.
func (tk *Ticker) Tick(now time.Time) {
	for _, task := range slices.Clone(tk.tasks) {
		if task.finished {
			continue
		}
		if !task.started {
			task.start = now
			task.started = true
		}

		progress := 1.0
		if task.duration > 0 {
			progress = min(float64(now.Sub(task.start))/float64(task.duration), 1)
		}

		if progress < 1 {
			task.step(task.easing.Ease(progress))
			continue
		}

		task.step(1)
		if task.finished {
			continue
		}
		task.finished = true
		tk.remove(task)
		if task.done != nil {
			task.done()
		}
	}
}

// Active reports whether any task still needs frames.
func (tk *Ticker) Active() bool {
	return len(tk.tasks) > 0
}

// Len returns the number of scheduled tasks.
func (tk *Ticker) Len() int {
	return len(tk.tasks)
}

func (tk *Ticker) remove(task *Task) {
	tk.tasks = slices.DeleteFunc(tk.tasks, func(t *Task) bool { return t == task })
}
