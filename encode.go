package amqp

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"sync"
	"time"
	"unicode/utf8"
)

// writer is the required interface for marshaling AMQP encoded data.
type writer interface {
	io.Writer
	io.ByteWriter
	WriteString(s string) (n int, err error)
}

var bufPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// MarshalBinary encodes the message as a sequence of AMQP sections, in the
// order header, delivery-annotations, message-annotations, properties,
// application-properties, body, footer.
//
// Sections must be of the concrete types provided by this package.
func (m *Message) MarshalBinary() ([]byte, error) {
	if err := m.valid(); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := m.marshal(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Message) marshal(wr writer) error {
	if m.header.ok {
		if err := marshal(wr, m.header.v); err != nil {
			return errorWrapf(err, "header")
		}
	}

	sections := []struct {
		code amqpType
		ok   bool
		v    interface{}
	}{
		{typeCodeDeliveryAnnotations, m.deliveryAnnotations.ok, m.deliveryAnnotations.v},
		{typeCodeMessageAnnotations, m.messageAnnotations.ok, m.messageAnnotations.v},
	}
	for _, s := range sections {
		if !s.ok {
			continue
		}
		if err := writeSection(wr, s.code, s.v); err != nil {
			return err
		}
	}

	if m.properties.ok {
		if err := marshal(wr, m.properties.v); err != nil {
			return errorWrapf(err, "properties")
		}
	}

	if m.applicationProperties.ok {
		if err := writeSection(wr, typeCodeApplicationProperties, m.applicationProperties.v); err != nil {
			return err
		}
	}

	switch b := m.body.(type) {
	case *valueBody:
		if err := writeSection(wr, typeCodeAMQPValue, b.v); err != nil {
			return err
		}
	case *dataBody:
		for _, item := range b.items {
			if err := writeSection(wr, typeCodeApplicationData, item); err != nil {
				return err
			}
		}
	case *sequenceBody:
		for _, item := range b.items {
			if err := writeSection(wr, typeCodeAMQPSequence, item); err != nil {
				return err
			}
		}
	}

	if m.footer.ok {
		if err := writeSection(wr, typeCodeFooter, m.footer.v); err != nil {
			return err
		}
	}

	debug(2, "marshaled message, body %s", m.body.kind())
	return nil
}

func writeSection(wr writer, code amqpType, v interface{}) error {
	if err := writeDescriptor(wr, code); err != nil {
		return err
	}
	if err := marshal(wr, v); err != nil {
		return errorWrapf(err, "section %#02x", uint8(code))
	}
	return nil
}

// marshaler is fulfilled by types that can marshal themselves
// to AMQP data.
type marshaler interface {
	marshal(writer) error
}

func marshal(wr writer, i interface{}) error {
	switch t := i.(type) {
	case nil:
		return wr.WriteByte(byte(typeCodeNull))
	case marshaler:
		return t.marshal(wr)
	case *AMQPValue:
		return marshal(wr, t.Value)
	case bool:
		if t {
			return wr.WriteByte(byte(typeCodeBoolTrue))
		}
		return wr.WriteByte(byte(typeCodeBoolFalse))
	case uint8:
		return writeFixed(wr, typeCodeUbyte, []byte{t})
	case uint16:
		return writeFixed(wr, typeCodeUshort, binary.BigEndian.AppendUint16(nil, t))
	case uint32:
		return writeUint32(wr, t)
	case uint64:
		return writeUint64(wr, t)
	case uint:
		return writeUint64(wr, uint64(t))
	case int8:
		return writeFixed(wr, typeCodeByte, []byte{uint8(t)})
	case int16:
		return writeFixed(wr, typeCodeShort, binary.BigEndian.AppendUint16(nil, uint16(t)))
	case int32:
		return writeInt32(wr, t)
	case int64:
		return writeInt64(wr, t)
	case int:
		return writeInt64(wr, int64(t))
	case float32:
		return writeFixed(wr, typeCodeFloat, binary.BigEndian.AppendUint32(nil, math.Float32bits(t)))
	case float64:
		return writeFixed(wr, typeCodeDouble, binary.BigEndian.AppendUint64(nil, math.Float64bits(t)))
	case time.Time:
		return writeTimestamp(wr, t)
	case UUID:
		return writeFixed(wr, typeCodeUUID, t[:])
	case string:
		return writeString(wr, t)
	case Symbol:
		return writeSymbol(wr, t)
	case []byte:
		return writeBinary(wr, t)
	case []string:
		return writeStringArray(wr, t)
	case []Symbol:
		strs := make([]string, len(t))
		for i := range t {
			strs[i] = string(t[i])
		}
		return writeSymbolArray(wr, strs)
	case []interface{}:
		return writeList(wr, t)
	case map[interface{}]interface{}:
		return writeMap(wr, len(t), func(wr writer) error {
			for k, v := range t {
				if err := writePair(wr, k, v); err != nil {
					return err
				}
			}
			return nil
		})
	case AnnotationMap:
		return marshal(wr, map[interface{}]interface{}(t))
	case map[string]interface{}:
		return writeMap(wr, len(t), func(wr writer) error {
			for k, v := range t {
				if err := writePair(wr, k, v); err != nil {
					return err
				}
			}
			return nil
		})
	case map[Symbol]interface{}:
		return writeMap(wr, len(t), func(wr writer) error {
			for k, v := range t {
				if err := writePair(wr, k, v); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		return errorErrorf("marshal not implemented for %T", i)
	}
}

func writePair(wr writer, k, v interface{}) error {
	if err := marshal(wr, k); err != nil {
		return err
	}
	return marshal(wr, v)
}

// writeFixed writes a type code followed by its fixed width payload.
func writeFixed(wr writer, code amqpType, payload []byte) error {
	if err := wr.WriteByte(byte(code)); err != nil {
		return err
	}
	_, err := wr.Write(payload)
	return err
}

func writeInt32(wr writer, n int32) error {
	if n < 128 && n >= -128 {
		return writeFixed(wr, typeCodeSmallint, []byte{byte(n)})
	}
	return writeFixed(wr, typeCodeInt, binary.BigEndian.AppendUint32(nil, uint32(n)))
}

func writeInt64(wr writer, n int64) error {
	if n < 128 && n >= -128 {
		return writeFixed(wr, typeCodeSmalllong, []byte{byte(n)})
	}
	return writeFixed(wr, typeCodeLong, binary.BigEndian.AppendUint64(nil, uint64(n)))
}

func writeUint32(wr writer, n uint32) error {
	switch {
	case n == 0:
		return wr.WriteByte(byte(typeCodeUint0))
	case n < 256:
		return writeFixed(wr, typeCodeSmallUint, []byte{byte(n)})
	default:
		return writeFixed(wr, typeCodeUint, binary.BigEndian.AppendUint32(nil, n))
	}
}

func writeUint64(wr writer, n uint64) error {
	switch {
	case n == 0:
		return wr.WriteByte(byte(typeCodeUlong0))
	case n < 256:
		return writeFixed(wr, typeCodeSmallUlong, []byte{byte(n)})
	default:
		return writeFixed(wr, typeCodeUlong, binary.BigEndian.AppendUint64(nil, n))
	}
}

func writeTimestamp(wr writer, t time.Time) error {
	ms := t.UnixMilli()
	return writeFixed(wr, typeCodeTimestamp, binary.BigEndian.AppendUint64(nil, uint64(ms)))
}

func writeDescriptor(wr writer, code amqpType) error {
	_, err := wr.Write([]byte{0x0, byte(typeCodeSmallUlong), byte(code)})
	return err
}

// writeVariable writes a variable width value using the 8 bit form when
// it fits, the 32 bit form otherwise.
func writeVariable(wr writer, code8, code32 amqpType, b []byte) error {
	l := len(b)
	switch {
	case l < 256:
		if _, err := wr.Write([]byte{byte(code8), byte(l)}); err != nil {
			return err
		}
	case uint64(l) < math.MaxUint32:
		if err := writeFixed(wr, code32, binary.BigEndian.AppendUint32(nil, uint32(l))); err != nil {
			return err
		}
	default:
		return errorNew("too long")
	}
	_, err := wr.Write(b)
	return err
}

func writeString(wr writer, str string) error {
	if !utf8.ValidString(str) {
		return errorNew("not a valid UTF-8 string")
	}
	return writeVariable(wr, typeCodeStr8, typeCodeStr32, []byte(str))
}

func writeSymbol(wr writer, sym Symbol) error {
	return writeVariable(wr, typeCodeSym8, typeCodeSym32, []byte(sym))
}

func writeBinary(wr writer, bin []byte) error {
	return writeVariable(wr, typeCodeVbin8, typeCodeVbin32, bin)
}

func writeStringArray(wr writer, strs []string) error {
	for _, s := range strs {
		if !utf8.ValidString(s) {
			return errorNew("not a valid UTF-8 string")
		}
	}
	return writeVariableArray(wr, typeCodeStr32, strs)
}

func writeSymbolArray(wr writer, syms []string) error {
	return writeVariableArray(wr, typeCodeSym32, syms)
}

// writeVariableArray writes an array of str32 or sym32 elements. The wide
// element form is always used so that one constructor covers every element.
func writeVariableArray(wr writer, of amqpType, elems []string) error {
	buf := bufPool.Get().(*bytes.Buffer)
	defer bufPool.Put(buf)
	buf.Reset()

	buf.WriteByte(byte(of))
	for _, e := range elems {
		buf.Write(binary.BigEndian.AppendUint32(nil, uint32(len(e))))
		buf.WriteString(e)
	}
	return writeCompound(wr, typeCodeArray8, typeCodeArray32, len(elems), buf)
}

func writeList(wr writer, items []interface{}) error {
	if len(items) == 0 {
		return wr.WriteByte(byte(typeCodeList0))
	}

	buf := new(bytes.Buffer)
	for i, item := range items {
		if err := marshal(buf, item); err != nil {
			return errorWrapf(err, "list item %d", i)
		}
	}
	return writeCompound(wr, typeCodeList8, typeCodeList32, len(items), buf)
}

func writeMap(wr writer, pairs int, writePairs func(writer) error) error {
	buf := new(bytes.Buffer)
	if err := writePairs(buf); err != nil {
		return err
	}
	return writeCompound(wr, typeCodeMap8, typeCodeMap32, pairs*2, buf)
}

// writeCompound writes the size and count header of a list, map or array
// followed by the encoded elements in buf.
func writeCompound(wr writer, code8, code32 amqpType, count int, buf *bytes.Buffer) error {
	size := buf.Len()
	switch {
	case count < 256 && size+1 < 256:
		if _, err := wr.Write([]byte{byte(code8), byte(size + 1), byte(count)}); err != nil {
			return err
		}
	case uint64(count) < math.MaxUint32 && uint64(size)+4 < math.MaxUint32:
		hdr := []byte{byte(code32)}
		hdr = binary.BigEndian.AppendUint32(hdr, uint32(size+4))
		hdr = binary.BigEndian.AppendUint32(hdr, uint32(count))
		if _, err := wr.Write(hdr); err != nil {
			return err
		}
	default:
		return errorNew("too many elements")
	}
	_, err := buf.WriteTo(wr)
	return err
}

// marshalField is a field to be marshaled
type marshalField struct {
	value interface{} // value to be marshaled
	omit  bool        // indicates that this field should be omitted (set to null)
}

// marshalComposite writes a described list. Omitted fields are written as
// null, or dropped entirely when no field after them is set.
func marshalComposite(wr writer, code amqpType, fields ...marshalField) error {
	last := -1
	for i, f := range fields {
		if !f.omit {
			last = i
		}
	}

	if err := writeDescriptor(wr, code); err != nil {
		return err
	}
	if last == -1 {
		return wr.WriteByte(byte(typeCodeList0))
	}

	buf := new(bytes.Buffer)
	for _, f := range fields[:last+1] {
		if f.omit {
			buf.WriteByte(byte(typeCodeNull))
			continue
		}
		if err := marshal(buf, f.value); err != nil {
			return err
		}
	}
	return writeCompound(wr, typeCodeList8, typeCodeList32, last+1, buf)
}

func (h *MessageHeader) marshal(wr writer) error {
	ttl := h.TTL / time.Millisecond
	if ttl < 0 || ttl > math.MaxUint32 {
		return errorErrorf("ttl %s out of range for milliseconds", h.TTL)
	}

	return marshalComposite(wr, typeCodeMessageHeader, []marshalField{
		{value: h.Durable, omit: !h.Durable},
		{value: h.Priority, omit: h.Priority == 4},
		{value: uint32(ttl), omit: h.TTL == 0},
		{value: h.FirstAcquirer, omit: !h.FirstAcquirer},
		{value: h.DeliveryCount, omit: h.DeliveryCount == 0},
	}...)
}

func (p *MessageProperties) marshal(wr writer) error {
	return marshalComposite(wr, typeCodeMessageProperties, []marshalField{
		{value: p.MessageID, omit: p.MessageID == nil},
		{value: p.UserID, omit: len(p.UserID) == 0},
		{value: p.To, omit: p.To == ""},
		{value: p.Subject, omit: p.Subject == ""},
		{value: p.ReplyTo, omit: p.ReplyTo == ""},
		{value: p.CorrelationID, omit: p.CorrelationID == nil},
		{value: p.ContentType, omit: p.ContentType == ""},
		{value: p.ContentEncoding, omit: p.ContentEncoding == ""},
		{value: p.AbsoluteExpiryTime, omit: p.AbsoluteExpiryTime.IsZero()},
		{value: p.CreationTime, omit: p.CreationTime.IsZero()},
		{value: p.GroupID, omit: p.GroupID == ""},
		{value: p.GroupSequence, omit: p.GroupSequence == 0},
		{value: p.ReplyToGroupID, omit: p.ReplyToGroupID == ""},
	}...)
}
