package amqp

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"reflect"
	"time"
	"unicode/utf8"
)

// reader is the required interface for unmarshaling AMQP encoded
// data. It is fulfilled byte *bytes.Buffer.
type reader interface {
	io.Reader
	io.ByteReader
	UnreadByte() error
	Bytes() []byte
	Len() int
	Next(int) []byte
}

var errInvalidLength = errorNew("length field is larger than frame")

// UnmarshalBinary decodes a sequence of AMQP sections into m, replacing
// all of its sections and its body. Decoded values are owned by m
// directly. On error m is left unchanged.
func (m *Message) UnmarshalBinary(data []byte) error {
	if err := m.valid(); err != nil {
		return err
	}

	tmp := &Message{alloc: m.alloc}
	tmp.init()
	if err := tmp.unmarshal(bytes.NewBuffer(data)); err != nil {
		tmp.releaseContents()
		return err
	}

	m.releaseContents()
	m.header, m.deliveryAnnotations, m.messageAnnotations = tmp.header, tmp.deliveryAnnotations, tmp.messageAnnotations
	m.properties, m.applicationProperties, m.footer = tmp.properties, tmp.applicationProperties, tmp.footer
	m.body = tmp.body
	debug(2, "unmarshaled message, body %s", m.body.kind())
	return nil
}

// releaseContents destroys every section and the body, leaving the
// message itself allocated.
func (m *Message) releaseContents() {
	m.header.clear()
	m.deliveryAnnotations.clear()
	m.messageAnnotations.clear()
	m.properties.clear()
	m.applicationProperties.clear()
	m.footer.clear()

	m.body.release(m.alloc)
	m.body = emptyBody{}
}

func (m *Message) unmarshal(r reader) error {
	// loop, decoding sections until bytes have been consumed
	for r.Len() > 0 {
		typ, err := peekMessageType(r.Bytes())
		if err != nil {
			return err
		}

		// header and properties are composites and read their own descriptor
		if typ != typeCodeMessageHeader && typ != typeCodeMessageProperties {
			if _, err = readDescriptor(r); err != nil {
				return err
			}
		}

		switch typ {
		case typeCodeMessageHeader:
			h := new(MessageHeader)
			if err = h.unmarshal(r); err == nil {
				storeSection(&m.header, Header(h))
			}

		case typeCodeDeliveryAnnotations:
			err = m.unmarshalAnnotations(r, &m.deliveryAnnotations)

		case typeCodeMessageAnnotations:
			err = m.unmarshalAnnotations(r, &m.messageAnnotations)

		case typeCodeMessageProperties:
			p := new(MessageProperties)
			if err = p.unmarshal(r); err == nil {
				storeSection(&m.properties, Properties(p))
			}

		case typeCodeApplicationProperties:
			var props map[string]interface{}
			if props, err = readStringMap(r); err == nil {
				storeSection(&m.applicationProperties, Value(NewValue(props)))
			}

		case typeCodeApplicationData:
			err = m.unmarshalData(r)

		case typeCodeAMQPSequence:
			err = m.unmarshalSequence(r)

		case typeCodeAMQPValue:
			err = m.unmarshalValue(r)

		case typeCodeFooter:
			err = m.unmarshalAnnotations(r, &m.footer)

		default:
			return errorErrorf("unknown message section %#02x", uint8(typ))
		}
		if err != nil {
			return errorWrapf(err, "section %#02x", uint8(typ))
		}
	}
	return nil
}

// storeSection stores v, which the message already owns, replacing a
// section repeated in the encoding.
func storeSection[T cloner[T]](s *slot[T], v T) {
	s.clear()
	s.v, s.ok = v, true
}

func (m *Message) unmarshalAnnotations(r reader, s *slot[Annotations]) error {
	v, err := readAny(r)
	if err != nil {
		return err
	}
	mm, ok := v.(map[interface{}]interface{})
	if !ok && v != nil {
		return errorErrorf("invalid annotations type %T", v)
	}

	a := make(AnnotationMap, len(mm))
	for k, v := range mm {
		switch k.(type) {
		case Symbol, uint64:
		default:
			return errorErrorf("invalid annotation key type %T", k)
		}
		a[k] = v
	}
	storeSection(s, Annotations(a))
	return nil
}

func (m *Message) unmarshalData(r reader) error {
	data, err := readBinary(r)
	if err != nil {
		return err
	}

	switch b := m.body.(type) {
	case emptyBody:
		nb := new(dataBody)
		if err := nb.add(m.alloc, data); err != nil {
			return err
		}
		m.body = nb
		return nil
	case *dataBody:
		return b.add(m.alloc, data)
	default:
		return errorWrapf(ErrConflictingBodyKind, "data section after %s body", m.body.kind())
	}
}

func (m *Message) unmarshalSequence(r reader) error {
	v, err := readAny(r)
	if err != nil {
		return err
	}
	if v == nil {
		v = []interface{}{}
	}
	if _, ok := v.([]interface{}); !ok {
		return errorErrorf("invalid amqp-sequence type %T", v)
	}

	switch b := m.body.(type) {
	case emptyBody:
		nb := new(sequenceBody)
		if err := nb.push(m.alloc, NewValue(v)); err != nil {
			return err
		}
		m.body = nb
		return nil
	case *sequenceBody:
		return b.push(m.alloc, NewValue(v))
	default:
		return errorWrapf(ErrConflictingBodyKind, "amqp-sequence section after %s body", m.body.kind())
	}
}

func (m *Message) unmarshalValue(r reader) error {
	if m.body.kind() != BodyNone {
		return errorWrapf(ErrConflictingBodyKind, "amqp-value section after %s body", m.body.kind())
	}
	v, err := readAny(r)
	if err != nil {
		return err
	}
	m.body = &valueBody{v: NewValue(v)}
	return nil
}

// peekMessageType reads the section type without
// modifying any data.
func peekMessageType(buf []byte) (amqpType, error) {
	return readDescriptor(bytes.NewBuffer(buf))
}

// readDescriptor reads a section or composite descriptor, returning its
// code. Only numeric descriptors are supported.
func readDescriptor(r reader) (amqpType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != 0 {
		return 0, errorErrorf("invalid composite header %#02x", b)
	}

	v, err := readAny(r)
	if err != nil {
		return 0, err
	}
	code, ok := v.(uint64)
	if !ok || code > math.MaxUint8 {
		return 0, errorErrorf("unsupported descriptor %v", v)
	}
	return amqpType(code), nil
}

// unmarshalComposite reads a described list of type typ into fields.
// Null or missing fields leave the destination untouched.
func unmarshalComposite(r reader, typ amqpType, fields ...interface{}) error {
	code, err := readDescriptor(r)
	if err != nil {
		return err
	}
	if code != typ {
		return errorErrorf("invalid header %#0x for %#0x", code, typ)
	}

	v, err := readAny(r)
	if err != nil {
		return err
	}
	list, ok := v.([]interface{})
	if !ok {
		return errorErrorf("invalid composite body %T for %#0x", v, typ)
	}
	if len(list) > len(fields) {
		return errorErrorf("invalid field count %d for %#0x", len(list), typ)
	}

	for i, f := range list {
		if f == nil {
			continue
		}
		if err := assign(fields[i], f); err != nil {
			return errorWrapf(err, "unmarshaling field %d", i)
		}
	}
	return nil
}

// assign stores v in the pointer dst if the types match exactly.
func assign(dst, v interface{}) error {
	if p, ok := dst.(*interface{}); ok {
		*p = v
		return nil
	}

	dv := reflect.ValueOf(dst).Elem()
	vv := reflect.ValueOf(v)
	if vv.Type() != dv.Type() {
		return errorErrorf("cannot unmarshal %T into %s", v, dv.Type())
	}
	dv.Set(vv)
	return nil
}

func (h *MessageHeader) unmarshal(r reader) error {
	h.Priority = 4

	var ttl uint32
	err := unmarshalComposite(r, typeCodeMessageHeader,
		&h.Durable,
		&h.Priority,
		&ttl,
		&h.FirstAcquirer,
		&h.DeliveryCount,
	)
	h.TTL = time.Duration(ttl) * time.Millisecond
	return err
}

func (p *MessageProperties) unmarshal(r reader) error {
	err := unmarshalComposite(r, typeCodeMessageProperties,
		&p.MessageID,
		&p.UserID,
		&p.To,
		&p.Subject,
		&p.ReplyTo,
		&p.CorrelationID,
		&p.ContentType,
		&p.ContentEncoding,
		&p.AbsoluteExpiryTime,
		&p.CreationTime,
		&p.GroupID,
		&p.GroupSequence,
		&p.ReplyToGroupID,
	)
	if err != nil {
		return err
	}
	if _, err := copyMessageID(p.MessageID); err != nil {
		return err
	}
	_, err = copyMessageID(p.CorrelationID)
	return err
}

func readStringMap(r reader) (map[string]interface{}, error) {
	v, err := readAny(r)
	if err != nil {
		return nil, err
	}
	mm, ok := v.(map[interface{}]interface{})
	if !ok && v != nil {
		return nil, errorErrorf("invalid application-properties type %T", v)
	}

	props := make(map[string]interface{}, len(mm))
	for k, v := range mm {
		key, ok := k.(string)
		if !ok {
			return nil, errorErrorf("invalid application-properties key type %T", k)
		}
		props[key] = v
	}
	return props, nil
}

func readBinary(r reader) ([]byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch amqpType(b) {
	case typeCodeNull:
		return nil, nil
	case typeCodeVbin8, typeCodeVbin32:
		return readVariableType(r, amqpType(b))
	default:
		return nil, errorErrorf("type code %#02x is not a recognized binary type", b)
	}
}

// readAny reads the next value, returning it as the Go type marshal
// would encode it from. null is returned as nil.
func readAny(r reader) (interface{}, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch typ := amqpType(b); typ {
	case typeCodeNull:
		return nil, nil

	// bool
	case typeCodeBoolTrue:
		return true, nil
	case typeCodeBoolFalse:
		return false, nil
	case typeCodeBool:
		n, err := r.ReadByte()
		return n != 0, err

	// unsigned integers
	case typeCodeUbyte:
		return r.ReadByte()
	case typeCodeUshort:
		buf, err := readFixed(r, 2)
		if err != nil {
			return nil, err
		}
		return binary.BigEndian.Uint16(buf), nil
	case typeCodeUint0:
		return uint32(0), nil
	case typeCodeSmallUint:
		n, err := r.ReadByte()
		return uint32(n), err
	case typeCodeUint:
		buf, err := readFixed(r, 4)
		if err != nil {
			return nil, err
		}
		return binary.BigEndian.Uint32(buf), nil
	case typeCodeUlong0:
		return uint64(0), nil
	case typeCodeSmallUlong:
		n, err := r.ReadByte()
		return uint64(n), err
	case typeCodeUlong:
		buf, err := readFixed(r, 8)
		if err != nil {
			return nil, err
		}
		return binary.BigEndian.Uint64(buf), nil

	// signed integers
	case typeCodeByte:
		n, err := r.ReadByte()
		return int8(n), err
	case typeCodeShort:
		buf, err := readFixed(r, 2)
		if err != nil {
			return nil, err
		}
		return int16(binary.BigEndian.Uint16(buf)), nil
	case typeCodeSmallint:
		n, err := r.ReadByte()
		return int32(int8(n)), err
	case typeCodeInt:
		buf, err := readFixed(r, 4)
		if err != nil {
			return nil, err
		}
		return int32(binary.BigEndian.Uint32(buf)), nil
	case typeCodeSmalllong:
		n, err := r.ReadByte()
		return int64(int8(n)), err
	case typeCodeLong:
		buf, err := readFixed(r, 8)
		if err != nil {
			return nil, err
		}
		return int64(binary.BigEndian.Uint64(buf)), nil

	// floating point
	case typeCodeFloat:
		buf, err := readFixed(r, 4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.BigEndian.Uint32(buf)), nil
	case typeCodeDouble:
		buf, err := readFixed(r, 8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(buf)), nil

	// timestamp
	case typeCodeTimestamp:
		buf, err := readFixed(r, 8)
		if err != nil {
			return nil, err
		}
		ms := int64(binary.BigEndian.Uint64(buf))
		return time.UnixMilli(ms).UTC(), nil

	// uuid
	case typeCodeUUID:
		buf, err := readFixed(r, 16)
		if err != nil {
			return nil, err
		}
		var u UUID
		copy(u[:], buf)
		return u, nil

	// variable length
	case typeCodeVbin8, typeCodeVbin32:
		return readVariableType(r, typ)
	case typeCodeStr8, typeCodeStr32:
		return readString(r, typ)
	case typeCodeSym8, typeCodeSym32:
		buf, err := readVariableType(r, typ)
		return Symbol(buf), err

	// compound
	case typeCodeList0:
		return []interface{}{}, nil
	case typeCodeList8, typeCodeList32:
		return readList(r, typ)
	case typeCodeMap8, typeCodeMap32:
		return readMap(r, typ)
	case typeCodeArray8, typeCodeArray32:
		return readArray(r, typ)

	default:
		return nil, errorErrorf("unknown type %#02x", b)
	}
}

func readString(r reader, typ amqpType) (string, error) {
	buf, err := readVariableType(r, typ)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", errorNew("not a valid UTF-8 string")
	}
	return string(buf), nil
}

func readFixed(r reader, n int) ([]byte, error) {
	if r.Len() < n {
		return nil, io.ErrUnexpectedEOF
	}
	return r.Next(n), nil
}

func readVariableType(r reader, of amqpType) ([]byte, error) {
	var n uint64
	switch of {
	case typeCodeVbin8, typeCodeStr8, typeCodeSym8:
		l, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		n = uint64(l)
	case typeCodeVbin32, typeCodeStr32, typeCodeSym32:
		buf, err := readFixed(r, 4)
		if err != nil {
			return nil, err
		}
		n = uint64(binary.BigEndian.Uint32(buf))
	default:
		return nil, errorErrorf("type code %#02x is not a recognized variable length type", of)
	}

	if n > uint64(r.Len()) {
		return nil, errInvalidLength
	}
	buf := make([]byte, n)
	_, err := io.ReadFull(r, buf)
	return buf, err
}

// readCompoundHeader reads the size and count following a list, map or
// array constructor and returns the count.
func readCompoundHeader(r reader, wide bool) (int, error) {
	var size, count uint64
	if wide {
		buf, err := readFixed(r, 8)
		if err != nil {
			return 0, err
		}
		size = uint64(binary.BigEndian.Uint32(buf[:4]))
		count = uint64(binary.BigEndian.Uint32(buf[4:]))
	} else {
		buf, err := readFixed(r, 2)
		if err != nil {
			return 0, err
		}
		size, count = uint64(buf[0]), uint64(buf[1])
	}

	// size covers the count field
	if size > uint64(r.Len())+4 || count > uint64(r.Len()) {
		return 0, errInvalidLength
	}
	return int(count), nil
}

func readList(r reader, typ amqpType) ([]interface{}, error) {
	count, err := readCompoundHeader(r, typ == typeCodeList32)
	if err != nil {
		return nil, err
	}

	list := make([]interface{}, count)
	for i := range list {
		if list[i], err = readAny(r); err != nil {
			return nil, errorWrapf(err, "list item %d", i)
		}
	}
	return list, nil
}

func readMap(r reader, typ amqpType) (map[interface{}]interface{}, error) {
	count, err := readCompoundHeader(r, typ == typeCodeMap32)
	if err != nil {
		return nil, err
	}
	if count%2 != 0 {
		return nil, errorErrorf("invalid map element count %d", count)
	}

	m := make(map[interface{}]interface{}, count/2)
	for i := 0; i < count; i += 2 {
		key, err := readAny(r)
		if err != nil {
			return nil, err
		}

		// https://golang.org/ref/spec#Map_types:
		// The comparison operators == and != must be fully defined
		// for operands of the key type; thus the key type must not
		// be a function, map, or slice.
		switch reflect.ValueOf(key).Kind() {
		case reflect.Slice, reflect.Func, reflect.Map:
			return nil, errorNew("invalid map key")
		}

		value, err := readAny(r)
		if err != nil {
			return nil, err
		}
		m[key] = value
	}
	return m, nil
}

func readArray(r reader, typ amqpType) (interface{}, error) {
	count, err := readCompoundHeader(r, typ == typeCodeArray32)
	if err != nil {
		return nil, err
	}

	of, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch elem := amqpType(of); elem {
	case typeCodeStr8, typeCodeStr32:
		strs := make([]string, count)
		for i := range strs {
			if strs[i], err = readString(r, elem); err != nil {
				return nil, err
			}
		}
		return strs, nil
	case typeCodeSym8, typeCodeSym32:
		syms := make([]Symbol, count)
		for i := range syms {
			buf, err := readVariableType(r, elem)
			if err != nil {
				return nil, err
			}
			syms[i] = Symbol(buf)
		}
		return syms, nil
	default:
		return nil, errorErrorf("array of %#02x not implemented", of)
	}
}
