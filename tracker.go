package godi

import (
	"fmt"
	"strings"

	"github.com/a-peyrard/godi-datasource/set"
)

type (
	// Tracker follows the chain of components being built, to detect dependency cycles.
	Tracker struct {
		visited set.Set[Name]
		stack   []Name
	}
)

func NewTracker() *Tracker {
	return &Tracker{
		visited: set.New[Name](),
		stack:   make([]Name, 0),
	}
}

func NewTrackerFrom(other *Tracker) *Tracker {
	stack := make([]Name, len(other.stack))
	copy(stack, other.stack)
	return &Tracker{
		visited: other.visited.Clone(),
		stack:   stack,
	}
}

func (tracker *Tracker) Push(n Name) error {
	if tracker.visited.Contains(n) {
		cycle := []Name{n}
		for i := len(tracker.stack) - 1; i >= 0; i-- {
			cycle = append(cycle, tracker.stack[i])
			if tracker.stack[i] == n {
				break
			}
		}

		return fmt.Errorf("cycle found:\n%s", formatCycle(cycle))
	}
	tracker.visited.Add(n)
	tracker.stack = append(tracker.stack, n)

	return nil
}

func (tracker *Tracker) Pop() Name {
	if len(tracker.stack) == 0 {
		panic("tracker: pop from empty stack")
	}
	n := tracker.stack[len(tracker.stack)-1]
	tracker.stack = tracker.stack[:len(tracker.stack)-1]
	tracker.visited.Remove(n)

	return n
}

func formatCycle(cycle []Name) string {
	var b strings.Builder
	depth := 0
	for i := len(cycle) - 1; i >= 0; i-- {
		b.WriteString(strings.Repeat("\t", depth))
		if i != len(cycle)-1 {
			b.WriteString(" -> ")
		}
		b.WriteString(cycle[i].String())
		b.WriteByte('\n')
		depth++
	}
	return b.String()
}
