package records

import (
	"errors"
	"iter"
)

var (
	ErrSourceUnavailable = errors.New("record source unavailable")
	ErrSinkUnavailable   = errors.New("record sink unavailable")
)

// Source yields the records of one file in file order. Every call to Records
// starts a fresh pass. A non-nil error ends the sequence.
type Source[T any] interface {
	Records() iter.Seq2[T, error]
}

// Sink replaces the contents of one file.
type Sink[T any] interface {
	Open() (Writer[T], error)
}

// Writer accumulates records for a Sink. Nothing is visible until Commit,
// which truncates and rewrites the destination. Discard drops pending records.
type Writer[T any] interface {
	Write(T) error
	Commit() error
	Discard()
}

type Sources struct {
	Passwd  Source[Passwd]
	Shadow  Source[Shadow]
	Group   Source[Group]
	Gshadow Source[Gshadow]
}

type Sinks struct {
	Passwd  Sink[Passwd]
	Shadow  Sink[Shadow]
	Group   Sink[Group]
	Gshadow Sink[Gshadow]
}
