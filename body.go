package amqp

import "fmt"

// BodyKind identifies which body representation a Message holds.
type BodyKind uint8

const (
	BodyNone     BodyKind = iota // no body has been set
	BodyValue                    // a single amqp-value section
	BodyData                     // one or more data sections
	BodySequence                 // one or more amqp-sequence sections
)

func (k BodyKind) String() string {
	switch k {
	case BodyNone:
		return "none"
	case BodyValue:
		return "amqp-value"
	case BodyData:
		return "data"
	case BodySequence:
		return "amqp-sequence"
	default:
		return fmt.Sprintf("BodyKind(%d)", uint8(k))
	}
}

// body is one of emptyBody, *valueBody, *dataBody or *sequenceBody.
type body interface {
	kind() BodyKind
	// release destroys every item and frees the list storage.
	release(a Allocator)
	// clone returns an independently owned copy, or releases whatever it
	// built and returns an error.
	clone(a Allocator) (body, error)
}

type emptyBody struct{}

func (emptyBody) kind() BodyKind                { return BodyNone }
func (emptyBody) release(Allocator)             {}
func (emptyBody) clone(Allocator) (body, error) { return emptyBody{}, nil }

type valueBody struct {
	v Value
}

func (*valueBody) kind() BodyKind { return BodyValue }

func (b *valueBody) release(Allocator) {
	b.v.Destroy()
}

func (b *valueBody) clone(Allocator) (body, error) {
	c, err := cloneOf("amqp-value body", b.v)
	if err != nil {
		return nil, err
	}
	return &valueBody{v: c}, nil
}

type dataBody struct {
	items [][]byte
}

func (*dataBody) kind() BodyKind { return BodyData }

func (b *dataBody) release(a Allocator) {
	for _, item := range b.items {
		a.Free(len(item))
	}
	if cap(b.items) > 0 {
		a.Free(cap(b.items) * dataElemSize)
	}
	b.items = nil
}

// add appends a copy of data. On failure b is unchanged.
func (b *dataBody) add(a Allocator, data []byte) error {
	if err := a.Alloc(len(data)); err != nil {
		return errorWrapf(ErrOutOfMemory, "copying %d byte data section: %v", len(data), err)
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	items, err := grow(a, b.items, dataElemSize)
	if err != nil {
		a.Free(len(buf))
		return err
	}
	b.items = append(items, buf)
	return nil
}

func (b *dataBody) clone(a Allocator) (body, error) {
	c := new(dataBody)
	for _, item := range b.items {
		if err := c.add(a, item); err != nil {
			c.release(a)
			return nil, err
		}
	}
	return c, nil
}

type sequenceBody struct {
	items []Value
}

func (*sequenceBody) kind() BodyKind { return BodySequence }

func (b *sequenceBody) release(a Allocator) {
	for _, item := range b.items {
		item.Destroy()
	}
	if cap(b.items) > 0 {
		a.Free(cap(b.items) * valueElem)
	}
	b.items = nil
}

// add appends a clone of v. On failure b is unchanged.
func (b *sequenceBody) add(a Allocator, v Value) error {
	c, err := cloneOf("amqp-sequence body", v)
	if err != nil {
		return err
	}
	return b.push(a, c)
}

// push appends v without cloning it; b takes ownership. v is destroyed if
// the list cannot grow.
func (b *sequenceBody) push(a Allocator, v Value) error {
	items, err := grow(a, b.items, valueElem)
	if err != nil {
		v.Destroy()
		return err
	}
	b.items = append(items, v)
	return nil
}

func (b *sequenceBody) clone(a Allocator) (body, error) {
	c := new(sequenceBody)
	for _, item := range b.items {
		if err := c.add(a, item); err != nil {
			c.release(a)
			return nil, err
		}
	}
	return c, nil
}
