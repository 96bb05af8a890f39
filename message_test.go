package amqp

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/require"
)

var errSimulated = errors.New("simulated failure")

// tracker counts clone and destroy calls across every fake it created and
// can be armed to fail the Nth clone.
type tracker struct {
	clones   int
	destroys int
	nextID   int

	// failAt is the ordinal of the clone to fail, 0 never fails.
	failAt int

	// live holds the ids of clones not yet destroyed.
	live map[int]bool
}

func newTracker() *tracker {
	return &tracker{live: make(map[int]bool)}
}

// failNext arms t to fail the next clone.
func (t *tracker) failNext() {
	t.failAt = t.clones + 1
}

type fake struct {
	t     *tracker
	id    int
	label string
}

func (t *tracker) newFake(label string) *fake {
	t.nextID++
	return &fake{t: t, id: t.nextID, label: label}
}

func (f *fake) clone() (*fake, error) {
	f.t.clones++
	if f.t.clones == f.t.failAt {
		return nil, errSimulated
	}
	c := f.t.newFake(f.label)
	f.t.live[c.id] = true
	return c, nil
}

func (f *fake) Destroy() {
	f.t.destroys++
	delete(f.t.live, f.id)
}

type fakeHeader struct{ *fake }

func (h fakeHeader) Clone() (Header, error) {
	c, err := h.clone()
	if err != nil {
		return nil, err
	}
	return fakeHeader{c}, nil
}

type fakeAnnotations struct{ *fake }

func (a fakeAnnotations) Clone() (Annotations, error) {
	c, err := a.clone()
	if err != nil {
		return nil, err
	}
	return fakeAnnotations{c}, nil
}

type fakeProperties struct{ *fake }

func (p fakeProperties) Clone() (Properties, error) {
	c, err := p.clone()
	if err != nil {
		return nil, err
	}
	return fakeProperties{c}, nil
}

type fakeValue struct{ *fake }

func (v fakeValue) Clone() (Value, error) {
	c, err := v.clone()
	if err != nil {
		return nil, err
	}
	return fakeValue{c}, nil
}

func fakeOf(v interface{}) *fake {
	switch t := v.(type) {
	case fakeHeader:
		return t.fake
	case fakeAnnotations:
		return t.fake
	case fakeProperties:
		return t.fake
	case fakeValue:
		return t.fake
	}
	return nil
}

// countingAllocator records every Alloc and Free and can be armed to
// refuse the Nth Alloc.
type countingAllocator struct {
	allocs int
	frees  int
	inUse  int
	failAt int
}

func (a *countingAllocator) Alloc(size int) error {
	a.allocs++
	if a.allocs == a.failAt {
		return errSimulated
	}
	a.inUse += size
	return nil
}

func (a *countingAllocator) Free(size int) {
	a.frees++
	a.inUse -= size
}

func (a *countingAllocator) failNext() {
	a.failAt = a.allocs + 1
}

func (a *countingAllocator) reset() {
	a.allocs, a.frees, a.failAt = 0, 0, 0
}

func newTestMessage(t *testing.T) (*Message, *countingAllocator) {
	t.Helper()
	alloc := new(countingAllocator)
	m, err := NewMessage(MessageAllocator(alloc))
	require.NoError(t, err)
	return m, alloc
}

// sectionCase exercises one optional section through plain *fake handles.
type sectionCase struct {
	label string
	set   func(*Message, *fake) error
	get   func(*Message) (*fake, error)
}

var sectionCases = []sectionCase{
	{
		label: "header",
		set: func(m *Message, f *fake) error {
			if f == nil {
				return m.SetHeader(nil)
			}
			return m.SetHeader(fakeHeader{f})
		},
		get: func(m *Message) (*fake, error) {
			v, err := m.Header()
			return fakeOf(v), err
		},
	},
	{
		label: "delivery-annotations",
		set: func(m *Message, f *fake) error {
			if f == nil {
				return m.SetDeliveryAnnotations(nil)
			}
			return m.SetDeliveryAnnotations(fakeAnnotations{f})
		},
		get: func(m *Message) (*fake, error) {
			v, err := m.DeliveryAnnotations()
			return fakeOf(v), err
		},
	},
	{
		label: "message-annotations",
		set: func(m *Message, f *fake) error {
			if f == nil {
				return m.SetMessageAnnotations(nil)
			}
			return m.SetMessageAnnotations(fakeAnnotations{f})
		},
		get: func(m *Message) (*fake, error) {
			v, err := m.MessageAnnotations()
			return fakeOf(v), err
		},
	},
	{
		label: "properties",
		set: func(m *Message, f *fake) error {
			if f == nil {
				return m.SetProperties(nil)
			}
			return m.SetProperties(fakeProperties{f})
		},
		get: func(m *Message) (*fake, error) {
			v, err := m.Properties()
			return fakeOf(v), err
		},
	},
	{
		label: "application-properties",
		set: func(m *Message, f *fake) error {
			if f == nil {
				return m.SetApplicationProperties(nil)
			}
			return m.SetApplicationProperties(fakeValue{f})
		},
		get: func(m *Message) (*fake, error) {
			v, err := m.ApplicationProperties()
			return fakeOf(v), err
		},
	},
	{
		label: "footer",
		set: func(m *Message, f *fake) error {
			if f == nil {
				return m.SetFooter(nil)
			}
			return m.SetFooter(fakeAnnotations{f})
		},
		get: func(m *Message) (*fake, error) {
			v, err := m.Footer()
			return fakeOf(v), err
		},
	},
}

func TestNewMessage(t *testing.T) {
	m, alloc := newTestMessage(t)

	require.Equal(t, 1, alloc.allocs)
	require.Equal(t, BodyNone, m.BodyKind())
	for _, tt := range sectionCases {
		got, err := tt.get(m)
		require.NoError(t, err, tt.label)
		require.Nil(t, got, tt.label)
	}

	m.Destroy()
	require.Equal(t, 1, alloc.allocs)
	require.Equal(t, 1, alloc.frees)
	require.Zero(t, alloc.inUse)
}

func TestNewMessageTwice(t *testing.T) {
	alloc := new(countingAllocator)
	m1, err := NewMessage(MessageAllocator(alloc))
	require.NoError(t, err)
	m2, err := NewMessage(MessageAllocator(alloc))
	require.NoError(t, err)

	require.NotSame(t, m1, m2)
	require.Equal(t, 2, alloc.allocs)

	m1.Destroy()
	m2.Destroy()
	require.Zero(t, alloc.inUse)
}

func TestNewMessageAllocationFails(t *testing.T) {
	alloc := &countingAllocator{failAt: 1}

	m, err := NewMessage(MessageAllocator(alloc))
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.Nil(t, m)
	require.Zero(t, alloc.frees)
}

func TestNewMessageNilAllocator(t *testing.T) {
	_, err := NewMessage(MessageAllocator(nil))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNilMessage(t *testing.T) {
	var m *Message

	tests := []struct {
		label string
		call  func() error
	}{
		{"SetHeader", func() error { return m.SetHeader(&MessageHeader{}) }},
		{"Header", func() error { _, err := m.Header(); return err }},
		{"SetDeliveryAnnotations", func() error { return m.SetDeliveryAnnotations(AnnotationMap{}) }},
		{"DeliveryAnnotations", func() error { _, err := m.DeliveryAnnotations(); return err }},
		{"SetMessageAnnotations", func() error { return m.SetMessageAnnotations(AnnotationMap{}) }},
		{"MessageAnnotations", func() error { _, err := m.MessageAnnotations(); return err }},
		{"SetProperties", func() error { return m.SetProperties(&MessageProperties{}) }},
		{"Properties", func() error { _, err := m.Properties(); return err }},
		{"SetApplicationProperties", func() error { return m.SetApplicationProperties(NewValue(nil)) }},
		{"ApplicationProperties", func() error { _, err := m.ApplicationProperties(); return err }},
		{"SetFooter", func() error { return m.SetFooter(AnnotationMap{}) }},
		{"Footer", func() error { _, err := m.Footer(); return err }},
		{"Clone", func() error { _, err := m.Clone(); return err }},
		{"SetBodyAMQPValue", func() error { return m.SetBodyAMQPValue(NewValue(1)) }},
		{"BodyAMQPValue", func() error { _, err := m.BodyAMQPValue(); return err }},
		{"AddBodyAMQPData", func() error { return m.AddBodyAMQPData([]byte{1}) }},
		{"BodyAMQPDataCount", func() error { _, err := m.BodyAMQPDataCount(); return err }},
		{"BodyAMQPData", func() error { _, err := m.BodyAMQPData(0); return err }},
		{"AddBodyAMQPSequence", func() error { return m.AddBodyAMQPSequence(NewValue(1)) }},
		{"BodyAMQPSequenceCount", func() error { _, err := m.BodyAMQPSequenceCount(); return err }},
		{"BodyAMQPSequence", func() error { _, err := m.BodyAMQPSequence(0); return err }},
		{"SetMessageFormat", func() error { return m.SetMessageFormat(1) }},
		{"MarshalBinary", func() error { _, err := m.MarshalBinary(); return err }},
		{"UnmarshalBinary", func() error { return m.UnmarshalBinary(nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			require.ErrorIs(t, tt.call(), ErrInvalidArgument)
		})
	}

	require.Equal(t, BodyNone, m.BodyKind())
	m.Destroy()
}

func TestZeroValueMessage(t *testing.T) {
	t.Run("accessors", func(t *testing.T) {
		var m Message
		require.Equal(t, BodyNone, m.BodyKind())

		h, err := m.Header()
		require.NoError(t, err)
		require.Nil(t, h)

		require.NoError(t, m.SetBodyAMQPValue(NewValue("v")))
		require.Equal(t, BodyValue, m.BodyKind())

		c, err := m.Clone()
		require.NoError(t, err)
		require.Equal(t, BodyValue, c.BodyKind())
		c.Destroy()

		m.Destroy()
		require.ErrorIs(t, m.SetHeader(&MessageHeader{}), ErrInvalidArgument)
	})

	t.Run("unmarshal", func(t *testing.T) {
		m := new(Message)
		require.NoError(t, m.UnmarshalBinary([]byte{0x00, 0x53, 0x75, 0xa0, 0x01, 0x42}))

		data, err := m.BodyAMQPData(0)
		require.NoError(t, err)
		require.Equal(t, []byte{0x42}, data)
		m.Destroy()
	})

	t.Run("section names", func(t *testing.T) {
		tr := newTracker()
		var m Message
		defer m.Destroy()

		tr.failNext()
		err := m.SetFooter(fakeAnnotations{tr.newFake("footer")})
		var cerr *CloneError
		require.ErrorAs(t, err, &cerr)
		require.Equal(t, "footer", cerr.Section)
	})

	t.Run("destroy unused", func(t *testing.T) {
		var m Message
		m.Destroy()
		require.Equal(t, BodyNone, m.BodyKind())
	})
}

func TestDestroyedMessage(t *testing.T) {
	m, alloc := newTestMessage(t)
	m.Destroy()
	m.Destroy()

	require.Equal(t, 1, alloc.frees)
	require.ErrorIs(t, m.SetHeader(&MessageHeader{}), ErrInvalidArgument)
	_, err := m.Clone()
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Equal(t, 1, alloc.allocs)
}

func TestSectionSetGet(t *testing.T) {
	for _, tt := range sectionCases {
		t.Run(tt.label, func(t *testing.T) {
			tr := newTracker()
			m, _ := newTestMessage(t)
			defer m.Destroy()

			in := tr.newFake("first")
			require.NoError(t, tt.set(m, in))
			require.Equal(t, 1, tr.clones)

			got, err := tt.get(m)
			require.NoError(t, err)
			require.Equal(t, 2, tr.clones)
			require.NotSame(t, in, got)
			require.Equal(t, "first", got.label)

			// the stored clone is distinct from the one returned
			again, err := tt.get(m)
			require.NoError(t, err)
			require.NotSame(t, got, again)
			require.Len(t, tr.live, 3)
		})
	}
}

func TestSectionSetReplaces(t *testing.T) {
	for _, tt := range sectionCases {
		t.Run(tt.label, func(t *testing.T) {
			tr := newTracker()
			m, _ := newTestMessage(t)

			require.NoError(t, tt.set(m, tr.newFake("first")))
			require.NoError(t, tt.set(m, tr.newFake("second")))
			require.Equal(t, 1, tr.destroys)

			got, err := tt.get(m)
			require.NoError(t, err)
			require.Equal(t, "second", got.label)
			got.Destroy()

			m.Destroy()
			require.Empty(t, tr.live)
		})
	}
}

func TestSectionSetNilClears(t *testing.T) {
	for _, tt := range sectionCases {
		t.Run(tt.label, func(t *testing.T) {
			tr := newTracker()
			m, _ := newTestMessage(t)
			defer m.Destroy()

			require.NoError(t, tt.set(m, nil))
			require.Zero(t, tr.destroys)

			require.NoError(t, tt.set(m, tr.newFake("first")))
			require.NoError(t, tt.set(m, nil))
			require.Equal(t, 1, tr.destroys)
			require.Empty(t, tr.live)

			got, err := tt.get(m)
			require.NoError(t, err)
			require.Nil(t, got)
		})
	}
}

func TestSectionSetCloneFails(t *testing.T) {
	for _, tt := range sectionCases {
		t.Run(tt.label, func(t *testing.T) {
			tr := newTracker()
			m, _ := newTestMessage(t)
			defer m.Destroy()

			// no previous value
			tr.failNext()
			err := tt.set(m, tr.newFake("first"))
			require.ErrorIs(t, err, ErrCloneFailed)
			require.ErrorIs(t, err, errSimulated)

			var cerr *CloneError
			require.ErrorAs(t, err, &cerr)
			require.Equal(t, tt.label, cerr.Section)

			got, err := tt.get(m)
			require.NoError(t, err)
			require.Nil(t, got)

			// previous value is kept
			require.NoError(t, tt.set(m, tr.newFake("kept")))
			tr.failNext()
			require.ErrorIs(t, tt.set(m, tr.newFake("lost")), ErrCloneFailed)
			require.Zero(t, tr.destroys)

			got, err = tt.get(m)
			require.NoError(t, err)
			require.Equal(t, "kept", got.label)
		})
	}
}

func TestSectionGetCloneFails(t *testing.T) {
	for _, tt := range sectionCases {
		t.Run(tt.label, func(t *testing.T) {
			tr := newTracker()
			m, _ := newTestMessage(t)
			defer m.Destroy()

			require.NoError(t, tt.set(m, tr.newFake("first")))
			tr.failNext()

			got, err := tt.get(m)
			require.ErrorIs(t, err, ErrCloneFailed)
			require.Nil(t, got)
		})
	}
}

func TestSectionDestroyedWithMessage(t *testing.T) {
	for _, tt := range sectionCases {
		t.Run(tt.label, func(t *testing.T) {
			tr := newTracker()
			m, alloc := newTestMessage(t)

			require.NoError(t, tt.set(m, tr.newFake("first")))
			alloc.reset()

			m.Destroy()
			require.Equal(t, 1, tr.destroys)
			require.Equal(t, 1, alloc.frees)
			require.Empty(t, tr.live)
		})
	}
}

// fullMessage returns a message with every section set and a two item
// amqp-sequence body.
func fullMessage(t *testing.T, tr *tracker) (*Message, *countingAllocator) {
	t.Helper()
	m, alloc := newTestMessage(t)
	for _, tt := range sectionCases {
		require.NoError(t, tt.set(m, tr.newFake(tt.label)))
	}
	require.NoError(t, m.AddBodyAMQPSequence(fakeValue{tr.newFake("seq-1")}))
	require.NoError(t, m.AddBodyAMQPSequence(fakeValue{tr.newFake("seq-2")}))
	return m, alloc
}

func TestDestroyFullMessage(t *testing.T) {
	tr := newTracker()
	m, alloc := fullMessage(t, tr)
	alloc.reset()

	m.Destroy()

	// 6 sections, 2 sequence items
	require.Equal(t, 8, tr.destroys)
	// list storage and the message
	require.Equal(t, 2, alloc.frees)
	require.Zero(t, alloc.inUse)
	require.Empty(t, tr.live)
}

func TestClone(t *testing.T) {
	tr := newTracker()
	m, alloc := fullMessage(t, tr)
	require.NoError(t, m.SetMessageFormat(0x80013700))
	clonesBefore := tr.clones

	c, err := m.Clone()
	require.NoError(t, err)
	require.Equal(t, clonesBefore+8, tr.clones)
	require.Len(t, tr.live, 16)

	for _, tt := range sectionCases {
		got, err := tt.get(c)
		require.NoError(t, err, tt.label)
		require.Equal(t, tt.label, got.label)
		got.Destroy()
	}

	require.Equal(t, BodySequence, c.BodyKind())
	n, err := c.BodyAMQPSequenceCount()
	require.NoError(t, err)
	require.Equal(t, 2, n)
	for i, want := range []string{"seq-1", "seq-2"} {
		orig, err := m.BodyAMQPSequence(i)
		require.NoError(t, err)
		cloned, err := c.BodyAMQPSequence(i)
		require.NoError(t, err)
		require.Equal(t, want, fakeOf(cloned).label)
		require.NotSame(t, fakeOf(orig), fakeOf(cloned))
	}

	format, err := c.MessageFormat()
	require.NoError(t, err)
	require.Equal(t, uint32(0x80013700), format)

	destroysBefore := tr.destroys
	m.Destroy()
	require.Equal(t, destroysBefore+8, tr.destroys)
	c.Destroy()
	require.Equal(t, destroysBefore+16, tr.destroys)

	require.Empty(t, tr.live)
	require.Zero(t, alloc.inUse)
}

func TestCloneEmpty(t *testing.T) {
	m, alloc := newTestMessage(t)
	defer m.Destroy()

	c, err := m.Clone()
	require.NoError(t, err)
	require.Equal(t, 2, alloc.allocs)
	require.Equal(t, BodyNone, c.BodyKind())
	c.Destroy()
	require.Equal(t, 1, alloc.frees)
}

func TestCloneDataBody(t *testing.T) {
	m, alloc := newTestMessage(t)
	require.NoError(t, m.AddBodyAMQPData([]byte{0x42}))
	require.NoError(t, m.AddBodyAMQPData([]byte{0x43, 0x44}))

	c, err := m.Clone()
	require.NoError(t, err)

	item, err := c.BodyAMQPData(1)
	require.NoError(t, err)
	require.Equal(t, []byte{0x43, 0x44}, item)
	item[0] = 0xff

	orig, err := m.BodyAMQPData(1)
	require.NoError(t, err)
	require.Equal(t, []byte{0x43, 0x44}, orig)

	c.Destroy()
	m.Destroy()
	require.Zero(t, alloc.inUse)
}

func TestCloneValueBody(t *testing.T) {
	tr := newTracker()
	m, _ := newTestMessage(t)
	require.NoError(t, m.SetBodyAMQPValue(fakeValue{tr.newFake("value")}))

	c, err := m.Clone()
	require.NoError(t, err)
	require.Equal(t, BodyValue, c.BodyKind())

	v, err := c.BodyAMQPValueInPlace()
	require.NoError(t, err)
	require.Equal(t, "value", fakeOf(v).label)

	c.Destroy()
	m.Destroy()
	require.Empty(t, tr.live)
}

func TestCloneFailureReleasesPartialClone(t *testing.T) {
	// source holds 8 clones: 6 sections and 2 sequence items, cloned in
	// that order
	for step := 1; step <= 8; step++ {
		t.Run(fmt.Sprintf("clone %d fails", step), func(t *testing.T) {
			tr := newTracker()
			m, alloc := fullMessage(t, tr)
			defer m.Destroy()
			inUse := alloc.inUse

			tr.failAt = tr.clones + step
			c, err := m.Clone()
			require.ErrorIs(t, err, ErrCloneFailed)
			require.Nil(t, c)

			require.Len(t, tr.live, 8)
			require.Equal(t, inUse, alloc.inUse)
		})
	}
}

// fullDataMessage returns a message with every section set and a two item
// data body.
func fullDataMessage(t *testing.T, tr *tracker) (*Message, *countingAllocator) {
	t.Helper()
	m, alloc := newTestMessage(t)
	for _, tt := range sectionCases {
		require.NoError(t, tt.set(m, tr.newFake(tt.label)))
	}
	require.NoError(t, m.AddBodyAMQPData([]byte{0x42}))
	require.NoError(t, m.AddBodyAMQPData([]byte{0x43, 0x44}))
	return m, alloc
}

func TestCloneAllocationFails(t *testing.T) {
	tests := []struct {
		label  string
		build  func(*testing.T, *tracker) (*Message, *countingAllocator)
		live   int // clones held by the source
		failAt int // relative to the allocations made by the source
	}{
		{label: "sequence body, message", build: fullMessage, live: 8, failAt: 1},
		{label: "sequence body, first list", build: fullMessage, live: 8, failAt: 2},
		{label: "sequence body, grown list", build: fullMessage, live: 8, failAt: 3},
		{label: "data body, message", build: fullDataMessage, live: 6, failAt: 1},
		{label: "data body, first buffer", build: fullDataMessage, live: 6, failAt: 2},
		{label: "data body, first list", build: fullDataMessage, live: 6, failAt: 3},
		{label: "data body, second buffer", build: fullDataMessage, live: 6, failAt: 4},
		{label: "data body, grown list", build: fullDataMessage, live: 6, failAt: 5},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			tr := newTracker()
			m, alloc := tt.build(t, tr)
			defer m.Destroy()
			inUse := alloc.inUse

			alloc.failAt = alloc.allocs + tt.failAt
			c, err := m.Clone()
			require.ErrorIs(t, err, ErrOutOfMemory)
			require.Nil(t, c)

			require.Len(t, tr.live, tt.live)
			require.Equal(t, inUse, alloc.inUse)
		})
	}
}

// leakyValue returns a usable clone together with an error.
type leakyValue struct{ *fake }

func (v leakyValue) Clone() (Value, error) {
	c, err := v.clone()
	if err != nil {
		return nil, err
	}
	return fakeValue{c}, errSimulated
}

func TestCloneWithErrorDestroysResult(t *testing.T) {
	tests := []struct {
		label string
		call  func(*Message, Value) error
	}{
		{"application-properties", (*Message).SetApplicationProperties},
		{"amqp-value body", (*Message).SetBodyAMQPValue},
		{"amqp-sequence body", (*Message).AddBodyAMQPSequence},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			tr := newTracker()
			m, _ := newTestMessage(t)
			defer m.Destroy()

			err := tt.call(m, leakyValue{tr.newFake("leaky")})
			require.ErrorIs(t, err, ErrCloneFailed)
			require.ErrorIs(t, err, errSimulated)

			require.Equal(t, 1, tr.clones)
			require.Equal(t, 1, tr.destroys)
			require.Empty(t, tr.live)
			require.Equal(t, BodyNone, m.BodyKind())
		})
	}
}

func TestMessageFormatOption(t *testing.T) {
	m, err := NewMessage(MessageFormat(7))
	require.NoError(t, err)
	defer m.Destroy()

	format, err := m.MessageFormat()
	require.NoError(t, err)
	require.Equal(t, uint32(7), format)
}

func TestCloneHandOff(t *testing.T) {
	defer leaktest.Check(t)()

	alloc := NewLimitAllocator(1 << 20)
	m, err := NewMessage(MessageAllocator(alloc))
	require.NoError(t, err)
	require.NoError(t, m.SetProperties(&MessageProperties{Subject: "original"}))
	require.NoError(t, m.AddBodyAMQPData([]byte("payload")))

	const stages = 8
	var wg sync.WaitGroup
	errs := make(chan error, stages)
	for i := 0; i < stages; i++ {
		c, err := m.Clone()
		require.NoError(t, err)

		wg.Add(1)
		go func(i int, c *Message) {
			defer wg.Done()
			defer c.Destroy()

			if err := c.SetProperties(&MessageProperties{Subject: fmt.Sprint(i)}); err != nil {
				errs <- err
				return
			}
			data, err := c.BodyAMQPData(0)
			if err != nil {
				errs <- err
				return
			}
			data[0] = 'X'
			if err := c.AddBodyAMQPData([]byte{byte(i)}); err != nil {
				errs <- err
			}
		}(i, c)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	p, err := m.Properties()
	require.NoError(t, err)
	require.Equal(t, "original", p.(*MessageProperties).Subject)

	n, err := m.BodyAMQPDataCount()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	data, err := m.BodyAMQPData(0)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), data)

	m.Destroy()
	require.Zero(t, alloc.InUse())
}
