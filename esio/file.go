package esio

import (
	"github.com/robert-malhotra/go-esio/internal/container"
)

// FileCreate collectively creates a new container, or truncates an
// existing one when overwrite is true. Collective I/O access hints
// recorded on the handle are installed before creation. Fails with EINVAL
// if a container is already open, and with EFAILED when overwrite is
// false and path already exists.
func (h *Handle) FileCreate(path string, overwrite bool) error {
	if !h.valid() {
		return raise(EINVAL, "handle not initialized")
	}
	if h.file != nil {
		return raise(EINVAL, "cannot create file because previous file not closed")
	}
	if path == "" {
		return raise(EFAULT, "path is empty")
	}

	c, err := container.Create(path, overwrite, h.accessProps())
	if err != nil {
		if overwrite {
			return raiseCause(EFAILED, err, "unable to create file")
		}
		return raiseCause(EFAILED, err, "file already exists")
	}
	h.file = c
	return nil
}

// FileOpen collectively opens an existing container, read-only unless
// readwrite is set. Fails with EINVAL if a container is already open.
func (h *Handle) FileOpen(path string, readwrite bool) error {
	if !h.valid() {
		return raise(EINVAL, "handle not initialized")
	}
	if h.file != nil {
		return raise(EINVAL, "cannot open new file because previous file not closed")
	}
	if path == "" {
		return raise(EFAULT, "path is empty")
	}

	c, err := container.Open(path, readwrite, h.accessProps())
	if err != nil {
		return raiseCause(EFAILED, err, "unable to open existing file")
	}
	h.file = c
	return nil
}

// FileFlush collectively commits buffered data and metadata to disk
// without closing the container.
func (h *Handle) FileFlush() error {
	if !h.valid() {
		return raise(EINVAL, "handle not initialized")
	}
	if h.file == nil {
		return raise(EINVAL, "no file currently open")
	}
	if err := h.file.Flush(); err != nil {
		return raiseCause(EFAILED, err, "unable to flush file")
	}
	return nil
}

// FileClose collectively closes the open container, flushing it first.
// Closing when no container is open is a silent success, so callers may
// close unconditionally on teardown paths.
func (h *Handle) FileClose() error {
	if !h.valid() {
		return raise(EINVAL, "handle not initialized")
	}
	if h.file == nil {
		return nil
	}
	err := h.file.Close()
	h.file = nil
	if err != nil {
		return raiseCause(EFAILED, err, "unable to close file")
	}
	return nil
}

func (h *Handle) accessProps() container.AccessProps {
	hints := make(map[string]string, len(h.hints))
	for k, v := range h.hints {
		hints[k] = v
	}
	return container.AccessProps{Comm: h.comm, Hints: hints}
}
