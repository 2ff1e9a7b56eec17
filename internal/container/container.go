package container

import (
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-esio/comm"
	"github.com/robert-malhotra/go-esio/internal/hfile"
)

// ErrNotFound reports a missing object or attribute. Callers probing for
// existence match against it with errors.Is.
var ErrNotFound = errors.New("container: not found")

// The diagnostic sink mirrors the substrate's automatic error reporting:
// structural failures are logged through it before the error is returned.
// Probing callers silence it for the duration of the probe.
var logSink atomic.Pointer[func(context string, err error)]

func init() {
	f := func(context string, err error) {
		logrus.WithError(err).Error("container: " + context)
	}
	logSink.Store(&f)
}

// Silence suppresses the diagnostic sink and returns the function that
// restores it. Safe against panics when paired with defer.
func Silence() (restore func()) {
	noop := func(string, error) {}
	prev := logSink.Swap(&noop)
	return func() { logSink.Store(prev) }
}

func report(context string, err error) {
	(*logSink.Load())(context, err)
}

// attrValue is one attribute: a datatype, a dataspace (nil dims = scalar),
// and raw element bytes.
type attrValue struct {
	name string
	typ  *hfile.Datatype
	dims []uint64
	data []byte
}

// object is the replicated image of one dataset.
type object struct {
	name     string
	typ      ElemType
	dims     []uint64
	dataAddr uint64
	dataSize uint64
	attrs    []*attrValue
}

func (o *object) findAttr(name string) *attrValue {
	for _, a := range o.attrs {
		if a.name == name {
			return a
		}
	}
	return nil
}

// allocator hands out file space by bumping the end-of-file address. Every
// rank runs the same allocations in the same order, so the image stays
// replicated without communication.
type allocator struct {
	eof uint64
}

func (a *allocator) take(size uint64) uint64 {
	addr := a.eof
	a.eof += size
	return addr
}

// AccessProps carry the collective context into Create and Open. Hints are
// advisory key/value pairs recorded for the container's lifetime.
type AccessProps struct {
	Comm  comm.Comm
	Hints map[string]string
}

// Container is one rank's handle onto a shared container file.
type Container struct {
	comm     comm.Comm
	path     string
	file     *os.File
	writable bool
	hints    map[string]string

	alloc   allocator
	objects map[string]*object
	order   []string
	// root-level attributes (scalar and vector values, strings)
	rootAttrs []*attrValue

	dirty  bool
	closed bool
}

// Create collectively creates (or with overwrite truncates) the container
// at path. Rank 0 performs the filesystem creation; the outcome is
// broadcast so every rank agrees before any rank proceeds.
func Create(path string, overwrite bool, props AccessProps) (*Container, error) {
	pc := props.Comm
	if pc == nil {
		return nil, errors.New("container: no communicator supplied")
	}

	status := []byte{0}
	var f *os.File
	var err error
	if pc.Rank() == 0 {
		flags := os.O_RDWR | os.O_CREATE
		if overwrite {
			flags |= os.O_TRUNC
		} else {
			flags |= os.O_EXCL
		}
		f, err = os.OpenFile(path, flags, 0o666)
		if err == nil {
			// Seed a valid, empty superblock so a crash between now and
			// the first flush leaves a recognizable file.
			sb := hfile.Superblock{EOF: hfile.SuperblockSize, Root: hfile.Undef}
			if _, werr := f.WriteAt(sb.Encode(), 0); werr != nil {
				f.Close()
				err = werr
			}
		}
		if err != nil {
			status[0] = 1
		}
	}
	if berr := pc.Bcast(0, status); berr != nil {
		return nil, berr
	}
	if status[0] != 0 {
		report("creating container "+path, err)
		if err == nil {
			err = errors.New("container: create failed on rank 0")
		}
		return nil, err
	}
	if pc.Rank() != 0 {
		f, err = os.OpenFile(path, os.O_RDWR, 0o666)
		if err != nil {
			report("opening fresh container "+path, err)
			return nil, errors.Wrap(err, "container: opening freshly created file")
		}
	}

	return &Container{
		comm:     pc,
		path:     path,
		file:     f,
		writable: true,
		hints:    props.Hints,
		alloc:    allocator{eof: hfile.SuperblockSize},
		objects:  make(map[string]*object),
		dirty:    true,
	}, nil
}

// Open collectively opens an existing container. Every rank parses the
// file structure independently; identical bytes yield identical images.
func Open(path string, readwrite bool, props AccessProps) (*Container, error) {
	pc := props.Comm
	if pc == nil {
		return nil, errors.New("container: no communicator supplied")
	}

	flags := os.O_RDONLY
	if readwrite {
		flags = os.O_RDWR
	}

	status := []byte{0}
	var f *os.File
	var err error
	if pc.Rank() == 0 {
		f, err = os.OpenFile(path, flags, 0)
		if err != nil {
			status[0] = 1
		}
	}
	if berr := pc.Bcast(0, status); berr != nil {
		return nil, berr
	}
	if status[0] != 0 {
		report("opening container "+path, err)
		if err == nil {
			err = errors.New("container: open failed on rank 0")
		}
		return nil, err
	}
	if pc.Rank() != 0 {
		if f, err = os.OpenFile(path, flags, 0); err != nil {
			report("opening container "+path, err)
			return nil, errors.Wrap(err, "container: open")
		}
	}

	c := &Container{
		comm:     pc,
		path:     path,
		file:     f,
		writable: readwrite,
		hints:    props.Hints,
		objects:  make(map[string]*object),
	}
	if err := c.parse(); err != nil {
		f.Close()
		report("parsing container "+path, err)
		return nil, err
	}
	return c, nil
}

// parse loads the replicated image from disk.
func (c *Container) parse() error {
	buf := make([]byte, hfile.SuperblockSize)
	if _, err := c.file.ReadAt(buf, 0); err != nil {
		return errors.Wrap(err, "container: reading superblock")
	}
	sb, err := hfile.DecodeSuperblock(buf)
	if err != nil {
		return err
	}
	c.alloc.eof = sb.EOF

	if sb.Root == hfile.Undef {
		return nil
	}
	rootMsgs, err := c.readHeaderAt(sb.Root)
	if err != nil {
		return errors.WithMessage(err, "root group header")
	}
	for _, m := range rootMsgs {
		switch m.Type {
		case hfile.MsgLink:
			link, err := hfile.DecodeLink(hfile.NewDecoder(m.Body))
			if err != nil {
				return err
			}
			obj, err := c.parseObject(link.Name, link.Addr)
			if err != nil {
				return errors.WithMessagef(err, "dataset %q", link.Name)
			}
			c.objects[link.Name] = obj
			c.order = append(c.order, link.Name)
		case hfile.MsgAttribute:
			a, err := hfile.DecodeAttribute(hfile.NewDecoder(m.Body))
			if err != nil {
				return err
			}
			c.rootAttrs = append(c.rootAttrs, &attrValue{
				name: a.Name, typ: a.Type, dims: a.Space.Dims, data: a.Data,
			})
		}
	}
	return nil
}

func (c *Container) parseObject(name string, addr uint64) (*object, error) {
	msgs, err := c.readHeaderAt(addr)
	if err != nil {
		return nil, err
	}
	obj := &object{name: name}
	var haveType, haveSpace, haveLayout bool
	for _, m := range msgs {
		switch m.Type {
		case hfile.MsgDatatype:
			dt, err := hfile.DecodeDatatype(hfile.NewDecoder(m.Body))
			if err != nil {
				return nil, err
			}
			if obj.typ, err = typeFromDatatype(dt); err != nil {
				return nil, err
			}
			haveType = true
		case hfile.MsgDataspace:
			ds, err := hfile.DecodeDataspace(hfile.NewDecoder(m.Body))
			if err != nil {
				return nil, err
			}
			obj.dims = ds.Dims
			haveSpace = true
		case hfile.MsgLayout:
			lo, err := hfile.DecodeLayout(hfile.NewDecoder(m.Body))
			if err != nil {
				return nil, err
			}
			obj.dataAddr, obj.dataSize = lo.Addr, lo.Size
			haveLayout = true
		case hfile.MsgAttribute:
			a, err := hfile.DecodeAttribute(hfile.NewDecoder(m.Body))
			if err != nil {
				return nil, err
			}
			obj.attrs = append(obj.attrs, &attrValue{
				name: a.Name, typ: a.Type, dims: a.Space.Dims, data: a.Data,
			})
		}
	}
	if !haveType || !haveSpace || !haveLayout {
		return nil, errors.New("container: dataset header missing required messages")
	}
	return obj, nil
}

func (c *Container) readHeaderAt(addr uint64) ([]hfile.Message, error) {
	prefix := make([]byte, hfile.HeaderPrefixSize)
	if _, err := c.file.ReadAt(prefix, int64(addr)); err != nil {
		return nil, errors.Wrap(err, "container: reading object header")
	}
	total, err := hfile.DecodeHeaderPrefix(prefix)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, total)
	if _, err := c.file.ReadAt(buf, int64(addr)); err != nil {
		return nil, errors.Wrap(err, "container: reading object header")
	}
	return hfile.DecodeHeader(buf)
}

// Path returns the container's filesystem path.
func (c *Container) Path() string { return c.path }

// Hint returns the advisory access hint recorded under key, if any.
// Hints tune nothing in this driver yet; they are carried so callers can
// round-trip MPI-Info-style settings through the access properties.
func (c *Container) Hint(key string) (string, bool) {
	v, ok := c.hints[key]
	return v, ok
}

// Writable reports whether the container accepts writes.
func (c *Container) Writable() bool { return c.writable }

// List returns the dataset names in creation order.
func (c *Container) List() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Flush materializes pending structural metadata and commits the file to
// disk. Collective: all ranks serialize the identical image; rank 0 writes.
func (c *Container) Flush() error {
	if c.closed {
		return errors.New("container: flush after close")
	}
	if err := c.comm.Barrier(); err != nil {
		return err
	}

	var err error
	if c.writable {
		if c.dirty {
			if err = c.writeMetadata(); err == nil {
				c.dirty = false
			}
		}
		if err == nil && c.comm.Rank() == 0 {
			err = c.file.Sync()
		}
	}

	if berr := c.comm.Barrier(); berr != nil && err == nil {
		err = berr
	}
	return err
}

// writeMetadata serializes every object header, the root group header, and
// the superblock. All ranks run the same allocations; only rank 0 writes.
func (c *Container) writeMetadata() error {
	type pending struct {
		addr uint64
		buf  []byte
	}
	var writes []pending

	var links []hfile.Message
	for _, name := range c.order {
		obj := c.objects[name]
		msgs := []hfile.Message{
			hfile.EncodeBody(hfile.MsgDataspace, &hfile.Dataspace{Dims: obj.dims}),
			hfile.EncodeBody(hfile.MsgDatatype, obj.typ.datatype()),
			hfile.EncodeBody(hfile.MsgLayout, &hfile.Layout{Addr: obj.dataAddr, Size: obj.dataSize}),
		}
		for _, a := range obj.attrs {
			msgs = append(msgs, hfile.EncodeBody(hfile.MsgAttribute, &hfile.Attribute{
				Name: a.name, Type: a.typ, Space: &hfile.Dataspace{Dims: a.dims}, Data: a.data,
			}))
		}
		buf := hfile.EncodeHeader(msgs)
		addr := c.alloc.take(uint64(len(buf)))
		writes = append(writes, pending{addr, buf})
		links = append(links, hfile.EncodeBody(hfile.MsgLink, &hfile.Link{Name: name, Addr: addr}))
	}

	rootMsgs := links
	for _, a := range c.rootAttrs {
		rootMsgs = append(rootMsgs, hfile.EncodeBody(hfile.MsgAttribute, &hfile.Attribute{
			Name: a.name, Type: a.typ, Space: &hfile.Dataspace{Dims: a.dims}, Data: a.data,
		}))
	}
	rootBuf := hfile.EncodeHeader(rootMsgs)
	rootAddr := c.alloc.take(uint64(len(rootBuf)))
	writes = append(writes, pending{rootAddr, rootBuf})

	sb := hfile.Superblock{EOF: c.alloc.eof, Root: rootAddr}

	if c.comm.Rank() != 0 {
		return nil
	}
	for _, w := range writes {
		if _, err := c.file.WriteAt(w.buf, int64(w.addr)); err != nil {
			return errors.Wrap(err, "container: writing metadata")
		}
	}
	if _, err := c.file.WriteAt(sb.Encode(), 0); err != nil {
		return errors.Wrap(err, "container: writing superblock")
	}
	return nil
}

// Close flushes and closes the container. Collective.
func (c *Container) Close() error {
	if c.closed {
		return nil
	}
	err := c.Flush()
	c.closed = true
	if cerr := c.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if berr := c.comm.Barrier(); berr != nil && err == nil {
		err = berr
	}
	return err
}
