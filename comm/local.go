package comm

import (
	"sync"

	"github.com/pkg/errors"
)

// Self returns the single-process world: one rank, trivial collectives.
func Self() Comm {
	g := &group{size: 1, name: "self"}
	g.cond = sync.NewCond(&g.mu)
	return &member{g: g, rank: 0}
}

// NewGroup builds an in-process group of n ranks sharing one set of
// collectives. The returned slice holds one Comm per rank; each is intended
// to be driven from its own goroutine.
func NewGroup(n int, name string) []Comm {
	g := &group{size: n, name: name}
	g.cond = sync.NewCond(&g.mu)
	cs := make([]Comm, n)
	for i := range cs {
		cs[i] = &member{g: g, rank: i}
	}
	return cs
}

// group carries the shared collective state of an in-process communicator.
type group struct {
	mu   sync.Mutex
	cond *sync.Cond

	size  int
	name  string
	count int // ranks arrived at the current barrier
	phase int // barrier generation, so waiters from distinct barriers never mix

	slot []byte // broadcast payload staged by the root
}

// barrier is a generation-counting rendezvous.
func (g *group) barrier() {
	g.mu.Lock()
	defer g.mu.Unlock()

	phase := g.phase
	g.count++
	if g.count == g.size {
		g.count = 0
		g.phase++
		g.cond.Broadcast()
		return
	}
	for g.phase == phase {
		g.cond.Wait()
	}
}

// member is one rank's view of a group.
type member struct {
	g     *group
	rank  int
	freed bool
}

func (m *member) Rank() int    { return m.rank }
func (m *member) Size() int    { return m.g.size }
func (m *member) Name() string { return m.g.name }

func (m *member) Dup() (Comm, error) {
	if m.freed {
		return nil, ErrFreed
	}
	// Duplication is collective in MPI; preserve that property so call
	// sequences stay aligned across implementations.
	m.g.barrier()
	return &member{g: m.g, rank: m.rank}, nil
}

func (m *member) Barrier() error {
	if m.freed {
		return ErrFreed
	}
	m.g.barrier()
	return nil
}

func (m *member) Bcast(root int, buf []byte) error {
	if m.freed {
		return ErrFreed
	}
	if root < 0 || root >= m.g.size {
		return errors.Errorf("comm: broadcast root %d outside group of size %d", root, m.g.size)
	}

	// The root stages its payload before the first barrier; non-roots read
	// only after it. The second barrier keeps a subsequent Bcast from
	// overwriting the slot while slower ranks are still copying.
	if m.rank == root {
		m.g.mu.Lock()
		m.g.slot = append(m.g.slot[:0], buf...)
		m.g.mu.Unlock()
	}
	m.g.barrier()
	if m.rank != root {
		m.g.mu.Lock()
		if len(m.g.slot) != len(buf) {
			m.g.mu.Unlock()
			m.g.barrier()
			return errors.Errorf("comm: broadcast length mismatch: root sent %d bytes, rank %d expected %d",
				len(m.g.slot), m.rank, len(buf))
		}
		copy(buf, m.g.slot)
		m.g.mu.Unlock()
	}
	m.g.barrier()
	return nil
}

func (m *member) Free() error {
	if m.freed {
		return ErrFreed
	}
	m.freed = true
	return nil
}
