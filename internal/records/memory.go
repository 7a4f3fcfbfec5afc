package records

import (
	"iter"
	"slices"
)

// Table is an in-memory Source and Sink for one kind.
type Table[T any] struct {
	Rows []T
}

func (t *Table[T]) Records() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, r := range t.Rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (t *Table[T]) Open() (Writer[T], error) {
	return &tableWriter[T]{t: t}, nil
}

type tableWriter[T any] struct {
	t       *Table[T]
	pending []T
}

func (w *tableWriter[T]) Write(r T) error {
	w.pending = append(w.pending, r)
	return nil
}

func (w *tableWriter[T]) Commit() error {
	w.t.Rows = slices.Clone(w.pending)
	w.pending = nil
	return nil
}

func (w *tableWriter[T]) Discard() { w.pending = nil }

// Memory holds all four kinds in memory.
type Memory struct {
	Passwd  Table[Passwd]
	Shadow  Table[Shadow]
	Group   Table[Group]
	Gshadow Table[Gshadow]
}

func (m *Memory) Sources() Sources {
	return Sources{Passwd: &m.Passwd, Shadow: &m.Shadow, Group: &m.Group, Gshadow: &m.Gshadow}
}

func (m *Memory) Sinks() Sinks {
	return Sinks{Passwd: &m.Passwd, Shadow: &m.Shadow, Group: &m.Group, Gshadow: &m.Gshadow}
}
