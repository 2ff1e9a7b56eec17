// Package esio reads and writes scientific simulation restart files: large
// distributed multi-dimensional arrays stored in a single shared,
// self-describing container, with each rank of a parallel job contributing
// only its local sub-block through collective transfers.
//
// Every operation on a handle is either process-local (Init, Finalize,
// layout get/set, hints) or collective: all ranks of the handle's
// communicator must invoke it with globally consistent arguments. Handles
// are not safe for concurrent use within a rank.
package esio

import (
	"github.com/robert-malhotra/go-esio/comm"
	"github.com/robert-malhotra/go-esio/internal/container"
)

// Handle is the per-process context binding a communicator to at most one
// open container.
type Handle struct {
	comm comm.Comm
	rank int
	size int

	hints map[string]string
	file  *container.Container

	// layout is the registry tag used when creating new fields.
	layout int
}

// Init creates a handle against the given communicator. The communicator
// is duplicated (its name preserved) so the handle's collectives never
// interleave with the caller's. The handle must be finalized to release
// its resources.
func Init(c comm.Comm) (*Handle, error) {
	if c == nil {
		return nil, raise(EINVAL, "comm == nil")
	}
	dup, err := c.Dup()
	if err != nil {
		return nil, raiseCause(ESANITY, err, "unable to duplicate communicator")
	}
	return &Handle{
		comm:  dup,
		rank:  dup.Rank(),
		size:  dup.Size(),
		hints: make(map[string]string),
	}, nil
}

// Finalize releases the handle. Any still-open container is force-closed,
// with failures reported but not fatal. Finalize is idempotent.
func (h *Handle) Finalize() error {
	if h == nil || h.comm == nil {
		return nil
	}
	if h.file != nil {
		// Force closure; failures are reported through the handler
		// inside FileClose and finalization proceeds regardless.
		_ = h.FileClose()
		h.file = nil
	}
	if err := h.comm.Free(); err != nil {
		return raiseCause(EFAILED, err, "unable to free duplicated communicator")
	}
	h.comm = nil
	h.hints = nil
	return nil
}

// Rank returns the handle's rank within its communicator.
func (h *Handle) Rank() int { return h.rank }

// Size returns the number of ranks in the handle's communicator.
func (h *Handle) Size() int { return h.size }

// SetHint records an advisory key/value pair passed to the container
// driver on the next create or open.
func (h *Handle) SetHint(key, value string) {
	if h.hints != nil {
		h.hints[key] = value
	}
}

// Hint returns the value recorded for key, if any.
func (h *Handle) Hint(key string) (string, bool) {
	v, ok := h.hints[key]
	return v, ok
}

// valid reports whether the handle is initialized and not finalized.
func (h *Handle) valid() bool { return h != nil && h.comm != nil }
