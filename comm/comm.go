// Package comm defines the message-passing surface consumed by the esio
// package: process group size and rank, communicator duplication with a
// preserved name, and the two collectives (barrier, small broadcast) the
// container driver synchronizes on.
//
// The package deliberately mirrors the slice of MPI the library actually
// uses so that a cgo MPI binding can satisfy Comm from outside the module.
// Two implementations ship here: Self, the trivial single-process world,
// and NewGroup, an in-process group whose ranks run on goroutines and whose
// collectives are real synchronization points. The latter is what the test
// suite uses to exercise multi-rank decompositions.
package comm

import "github.com/pkg/errors"

// Comm is a communicator: a named, ordered group of cooperating processes.
// Every collective must be invoked by all ranks of the group. A Comm value
// belongs to a single rank and is not safe for concurrent use by multiple
// goroutines.
type Comm interface {
	// Rank returns this process's zero-based position within the group.
	Rank() int

	// Size returns the number of ranks in the group.
	Size() int

	// Name returns the communicator's name, preserved across Dup.
	Name() string

	// Dup collectively duplicates the communicator, preserving its name.
	// The duplicate is independently freeable.
	Dup() (Comm, error)

	// Barrier blocks until every rank of the group has entered it.
	Barrier() error

	// Bcast replaces buf's contents on every rank with root's contents.
	// len(buf) must agree across ranks. Collective.
	Bcast(root int, buf []byte) error

	// Free releases the communicator. Using a freed Comm is an error.
	Free() error
}

// ErrFreed is returned by operations on a communicator after Free.
var ErrFreed = errors.New("comm: communicator has been freed")
