package amqp

// Message is an AMQP bare message: optional header, delivery-annotations,
// message-annotations, properties, application-properties and footer
// sections, and at most one kind of body.
//
// A Message owns every value it holds. Setters store a clone of their
// argument and getters return a clone of the stored value, so nothing
// handed to or received from a Message aliases its contents. The exception
// is the InPlace and list item accessors, which return borrowed values
// that remain valid until the Message is modified or destroyed.
//
// A failed setter leaves the Message exactly as it was.
//
// The zero value is an empty Message using the HeapAllocator.
//
// A Message is not safe for concurrent use. Use Clone to hand a copy to
// another goroutine.
type Message struct {
	header                slot[Header]
	deliveryAnnotations   slot[Annotations]
	messageAnnotations    slot[Annotations]
	properties            slot[Properties]
	applicationProperties slot[Value]
	footer                slot[Annotations]

	body   body
	format uint32

	alloc     Allocator
	destroyed bool
}

// MessageOption is an option for NewMessage.
type MessageOption func(*Message) error

// MessageAllocator sets the Allocator used to account for the message
// and its body. Clones share their source's Allocator.
//
// Default: HeapAllocator.
func MessageAllocator(a Allocator) MessageOption {
	return func(m *Message) error {
		if a == nil {
			return errorWrapf(ErrInvalidArgument, "nil allocator")
		}
		m.alloc = a
		return nil
	}
}

// MessageFormat sets the message-format carried with the message on
// transfer.
//
// Default: 0.
func MessageFormat(format uint32) MessageOption {
	return func(m *Message) error {
		m.format = format
		return nil
	}
}

// NewMessage returns an empty message: no sections and no body.
func NewMessage(opts ...MessageOption) (*Message, error) {
	m := &Message{alloc: HeapAllocator{}}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if err := m.alloc.Alloc(messageSize); err != nil {
		return nil, errorWrapf(ErrOutOfMemory, "allocating message: %v", err)
	}
	m.init()
	return m, nil
}

func (m *Message) init() {
	m.header.name = "header"
	m.deliveryAnnotations.name = "delivery-annotations"
	m.messageAnnotations.name = "message-annotations"
	m.properties.name = "properties"
	m.applicationProperties.name = "application-properties"
	m.footer.name = "footer"
	m.body = emptyBody{}
}

// valid returns ErrInvalidArgument if m is nil or destroyed. A zero value
// Message is initialized with the HeapAllocator on first use.
func (m *Message) valid() error {
	if m == nil {
		return errorWrapf(ErrInvalidArgument, "nil message")
	}
	if m.destroyed {
		return errorWrapf(ErrInvalidArgument, "message destroyed")
	}
	if m.alloc == nil {
		m.alloc = HeapAllocator{}
		m.init()
	}
	return nil
}

// Clone returns a deep copy of m. Either every section and body item is
// copied, or nothing is allocated and an error is returned.
func (m *Message) Clone() (*Message, error) {
	if err := m.valid(); err != nil {
		return nil, err
	}

	if err := m.alloc.Alloc(messageSize); err != nil {
		return nil, errorWrapf(ErrOutOfMemory, "allocating message clone: %v", err)
	}
	c := &Message{alloc: m.alloc, format: m.format}
	c.init()

	err := m.cloneInto(c)
	if err != nil {
		c.Destroy()
		return nil, err
	}
	debug(2, "cloned message, body %s", c.body.kind())
	return c, nil
}

func (m *Message) cloneInto(c *Message) error {
	if err := m.header.copyTo(&c.header); err != nil {
		return err
	}
	if err := m.deliveryAnnotations.copyTo(&c.deliveryAnnotations); err != nil {
		return err
	}
	if err := m.messageAnnotations.copyTo(&c.messageAnnotations); err != nil {
		return err
	}
	if err := m.properties.copyTo(&c.properties); err != nil {
		return err
	}
	if err := m.applicationProperties.copyTo(&c.applicationProperties); err != nil {
		return err
	}
	if err := m.footer.copyTo(&c.footer); err != nil {
		return err
	}

	b, err := m.body.clone(m.alloc)
	if err != nil {
		return err
	}
	c.body = b
	return nil
}

// Destroy destroys every section and body item and releases the message.
// m must not be used afterwards. Destroy on a nil or already destroyed
// message does nothing.
func (m *Message) Destroy() {
	if m == nil || m.destroyed {
		return
	}
	if m.alloc == nil {
		m.destroyed = true
		return
	}

	m.header.clear()
	m.deliveryAnnotations.clear()
	m.messageAnnotations.clear()
	m.properties.clear()
	m.applicationProperties.clear()
	m.footer.clear()

	m.body.release(m.alloc)
	m.body = emptyBody{}

	m.alloc.Free(messageSize)
	m.destroyed = true
	debug(2, "destroyed message")
}

// SetHeader stores a clone of h as the header. A nil h removes the header.
func (m *Message) SetHeader(h Header) error {
	if err := m.valid(); err != nil {
		return err
	}
	return m.header.set(h)
}

// Header returns a clone of the header, or nil if none is set.
func (m *Message) Header() (Header, error) {
	if err := m.valid(); err != nil {
		return nil, err
	}
	return m.header.get()
}

// SetDeliveryAnnotations stores a clone of a as the delivery annotations.
// A nil a removes them.
func (m *Message) SetDeliveryAnnotations(a Annotations) error {
	if err := m.valid(); err != nil {
		return err
	}
	return m.deliveryAnnotations.set(a)
}

// DeliveryAnnotations returns a clone of the delivery annotations, or nil
// if none are set.
func (m *Message) DeliveryAnnotations() (Annotations, error) {
	if err := m.valid(); err != nil {
		return nil, err
	}
	return m.deliveryAnnotations.get()
}

// SetMessageAnnotations stores a clone of a as the message annotations.
// A nil a removes them.
func (m *Message) SetMessageAnnotations(a Annotations) error {
	if err := m.valid(); err != nil {
		return err
	}
	return m.messageAnnotations.set(a)
}

// MessageAnnotations returns a clone of the message annotations, or nil
// if none are set.
func (m *Message) MessageAnnotations() (Annotations, error) {
	if err := m.valid(); err != nil {
		return nil, err
	}
	return m.messageAnnotations.get()
}

// SetProperties stores a clone of p as the properties. A nil p removes
// them.
func (m *Message) SetProperties(p Properties) error {
	if err := m.valid(); err != nil {
		return err
	}
	return m.properties.set(p)
}

// Properties returns a clone of the properties, or nil if none are set.
func (m *Message) Properties() (Properties, error) {
	if err := m.valid(); err != nil {
		return nil, err
	}
	return m.properties.get()
}

// SetApplicationProperties stores a clone of v as the application
// properties. v is conventionally a map with string keys; this is not
// checked. A nil v removes them.
func (m *Message) SetApplicationProperties(v Value) error {
	if err := m.valid(); err != nil {
		return err
	}
	return m.applicationProperties.set(v)
}

// ApplicationProperties returns a clone of the application properties, or
// nil if none are set.
func (m *Message) ApplicationProperties() (Value, error) {
	if err := m.valid(); err != nil {
		return nil, err
	}
	return m.applicationProperties.get()
}

// SetFooter stores a clone of a as the footer. A nil a removes it.
func (m *Message) SetFooter(a Annotations) error {
	if err := m.valid(); err != nil {
		return err
	}
	return m.footer.set(a)
}

// Footer returns a clone of the footer, or nil if none is set.
func (m *Message) Footer() (Annotations, error) {
	if err := m.valid(); err != nil {
		return nil, err
	}
	return m.footer.get()
}

// SetMessageFormat sets the message-format carried with the message on
// transfer.
func (m *Message) SetMessageFormat(format uint32) error {
	if err := m.valid(); err != nil {
		return err
	}
	m.format = format
	return nil
}

// MessageFormat returns the message-format, 0 unless set.
func (m *Message) MessageFormat() (uint32, error) {
	if err := m.valid(); err != nil {
		return 0, err
	}
	return m.format, nil
}

// BodyKind reports which body the message holds. A nil or destroyed
// message reports BodyNone.
func (m *Message) BodyKind() BodyKind {
	if m.valid() != nil {
		return BodyNone
	}
	return m.body.kind()
}

// SetBodyAMQPValue replaces the body, whatever its kind, with a clone of v.
func (m *Message) SetBodyAMQPValue(v Value) error {
	if err := m.valid(); err != nil {
		return err
	}
	if absent(v) {
		return errorWrapf(ErrInvalidArgument, "nil body value")
	}

	c, err := cloneOf("amqp-value body", v)
	if err != nil {
		return err
	}

	debug(3, "body: %s -> %s", m.body.kind(), BodyValue)
	m.body.release(m.alloc)
	m.body = &valueBody{v: c}
	return nil
}

// BodyAMQPValue returns a clone of the amqp-value body.
func (m *Message) BodyAMQPValue() (Value, error) {
	v, err := m.BodyAMQPValueInPlace()
	if err != nil {
		return nil, err
	}
	return cloneOf("amqp-value body", v)
}

// BodyAMQPValueInPlace returns the amqp-value body without copying it.
// The value belongs to m and must not be modified or destroyed.
func (m *Message) BodyAMQPValueInPlace() (Value, error) {
	if err := m.valid(); err != nil {
		return nil, err
	}
	b, ok := m.body.(*valueBody)
	if !ok {
		return nil, errorWrapf(ErrWrongBodyKind, "body is %s", m.body.kind())
	}
	return b.v, nil
}

// AddBodyAMQPData appends a copy of data as a data section. It fails with
// ErrConflictingBodyKind if the body holds an amqp-value or amqp-sequence.
func (m *Message) AddBodyAMQPData(data []byte) error {
	if err := m.valid(); err != nil {
		return err
	}

	switch b := m.body.(type) {
	case emptyBody:
		nb := new(dataBody)
		if err := nb.add(m.alloc, data); err != nil {
			return err
		}
		debug(3, "body: %s -> %s", BodyNone, BodyData)
		m.body = nb
		return nil
	case *dataBody:
		return b.add(m.alloc, data)
	default:
		return errorWrapf(ErrConflictingBodyKind, "cannot add data to %s body", m.body.kind())
	}
}

// BodyAMQPDataCount returns the number of data sections.
func (m *Message) BodyAMQPDataCount() (int, error) {
	b, err := m.dataBody()
	if err != nil {
		return 0, err
	}
	return len(b.items), nil
}

// BodyAMQPData returns the data section at index i. The slice belongs to m;
// copy it to keep it beyond m's lifetime.
func (m *Message) BodyAMQPData(i int) ([]byte, error) {
	b, err := m.dataBody()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(b.items) {
		return nil, errorWrapf(ErrInvalidArgument, "data index %d out of range [0,%d)", i, len(b.items))
	}
	return b.items[i], nil
}

func (m *Message) dataBody() (*dataBody, error) {
	if err := m.valid(); err != nil {
		return nil, err
	}
	b, ok := m.body.(*dataBody)
	if !ok {
		return nil, errorWrapf(ErrWrongBodyKind, "body is %s", m.body.kind())
	}
	return b, nil
}

// AddBodyAMQPSequence appends a clone of v as an amqp-sequence section. It
// fails with ErrConflictingBodyKind if the body holds an amqp-value or data.
func (m *Message) AddBodyAMQPSequence(v Value) error {
	if err := m.valid(); err != nil {
		return err
	}
	if absent(v) {
		return errorWrapf(ErrInvalidArgument, "nil sequence value")
	}

	switch b := m.body.(type) {
	case emptyBody:
		nb := new(sequenceBody)
		if err := nb.add(m.alloc, v); err != nil {
			return err
		}
		debug(3, "body: %s -> %s", BodyNone, BodySequence)
		m.body = nb
		return nil
	case *sequenceBody:
		return b.add(m.alloc, v)
	default:
		return errorWrapf(ErrConflictingBodyKind, "cannot add sequence to %s body", m.body.kind())
	}
}

// BodyAMQPSequenceCount returns the number of amqp-sequence sections.
func (m *Message) BodyAMQPSequenceCount() (int, error) {
	b, err := m.sequenceBody()
	if err != nil {
		return 0, err
	}
	return len(b.items), nil
}

// BodyAMQPSequence returns the amqp-sequence section at index i without
// copying it. The value belongs to m and must not be modified or destroyed.
func (m *Message) BodyAMQPSequence(i int) (Value, error) {
	b, err := m.sequenceBody()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(b.items) {
		return nil, errorWrapf(ErrInvalidArgument, "sequence index %d out of range [0,%d)", i, len(b.items))
	}
	return b.items[i], nil
}

// CloneBodyAMQPSequence returns a clone of the amqp-sequence section at
// index i.
func (m *Message) CloneBodyAMQPSequence(i int) (Value, error) {
	v, err := m.BodyAMQPSequence(i)
	if err != nil {
		return nil, err
	}
	return cloneOf("amqp-sequence body", v)
}

func (m *Message) sequenceBody() (*sequenceBody, error) {
	if err := m.valid(); err != nil {
		return nil, err
	}
	b, ok := m.body.(*sequenceBody)
	if !ok {
		return nil, errorWrapf(ErrWrongBodyKind, "body is %s", m.body.kind())
	}
	return b, nil
}
