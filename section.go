package amqp

import (
	"time"
)

// Header is a message header section.
//
// Clone returns an independently owned copy. Destroy releases any
// resources held by the header; it is called exactly once for every
// header a Message stores.
type Header interface {
	Clone() (Header, error)
	Destroy()
}

// Annotations is a delivery-annotations, message-annotations or footer
// section.
type Annotations interface {
	Clone() (Annotations, error)
	Destroy()
}

// Properties is a message properties section.
type Properties interface {
	Clone() (Properties, error)
	Destroy()
}

// Value is an AMQP value. It is used for application properties, an
// amqp-value body and the items of an amqp-sequence body.
type Value interface {
	Clone() (Value, error)
	Destroy()
}

/*
<type name="header" class="composite" source="list" provides="section">
    <descriptor name="amqp:header:list" code="0x00000000:0x00000070"/>
    <field name="durable" type="boolean" default="false"/>
    <field name="priority" type="ubyte" default="4"/>
    <field name="ttl" type="milliseconds"/>
    <field name="first-acquirer" type="boolean" default="false"/>
    <field name="delivery-count" type="uint" default="0"/>
</type>
*/

// MessageHeader carries standard delivery details about the transfer
// of a message.
type MessageHeader struct {
	Durable       bool
	Priority      uint8
	TTL           time.Duration // from milliseconds
	FirstAcquirer bool
	DeliveryCount uint32
}

func (h *MessageHeader) Clone() (Header, error) {
	c := *h
	return &c, nil
}

// Destroy is a no-op, a MessageHeader holds no references.
func (h *MessageHeader) Destroy() {}

/*
<type name="properties" class="composite" source="list" provides="section">
    <descriptor name="amqp:properties:list" code="0x00000000:0x00000073"/>
    <field name="message-id" type="*" requires="message-id"/>
    <field name="user-id" type="binary"/>
    <field name="to" type="*" requires="address"/>
    <field name="subject" type="string"/>
    <field name="reply-to" type="*" requires="address"/>
    <field name="correlation-id" type="*" requires="message-id"/>
    <field name="content-type" type="symbol"/>
    <field name="content-encoding" type="symbol"/>
    <field name="absolute-expiry-time" type="timestamp"/>
    <field name="creation-time" type="timestamp"/>
    <field name="group-id" type="string"/>
    <field name="group-sequence" type="sequence-no"/>
    <field name="reply-to-group-id" type="string"/>
</type>
*/

// MessageProperties is the defined set of properties for AMQP messages.
type MessageProperties struct {
	MessageID          interface{} // uint64, uuid.UUID, []byte, or string
	UserID             []byte
	To                 string
	Subject            string
	ReplyTo            string
	CorrelationID      interface{} // uint64, uuid.UUID, []byte, or string
	ContentType        Symbol
	ContentEncoding    Symbol
	AbsoluteExpiryTime time.Time
	CreationTime       time.Time
	GroupID            string
	GroupSequence      uint32 // RFC-1982 sequence number
	ReplyToGroupID     string
}

func (p *MessageProperties) Clone() (Properties, error) {
	c := *p

	var err error
	if c.MessageID, err = copyMessageID(p.MessageID); err != nil {
		return nil, errorWrapf(err, "message-id")
	}
	if c.CorrelationID, err = copyMessageID(p.CorrelationID); err != nil {
		return nil, errorWrapf(err, "correlation-id")
	}
	c.UserID = copyBytes(p.UserID)
	return &c, nil
}

// Destroy is a no-op, the copy made by Clone shares nothing.
func (p *MessageProperties) Destroy() {}

// copyMessageID copies one of the four message-id types.
func copyMessageID(id interface{}) (interface{}, error) {
	switch id.(type) {
	case nil, uint64, string, UUID:
		return id, nil
	case []byte:
		return copyValue(id)
	default:
		return nil, errorErrorf("invalid message-id type %T", id)
	}
}

// AnnotationMap is a map of annotations keyed by Symbol or uint64. It is
// the concrete type used for delivery annotations, message annotations
// and the footer.
type AnnotationMap map[interface{}]interface{}

func (a AnnotationMap) Clone() (Annotations, error) {
	c := make(AnnotationMap, len(a))
	for k, v := range a {
		switch k.(type) {
		case Symbol, uint64:
		default:
			return nil, errorErrorf("invalid annotation key type %T", k)
		}

		cv, err := copyValue(v)
		if err != nil {
			return nil, errorWrapf(err, "annotation %v", k)
		}
		c[k] = cv
	}
	return c, nil
}

// Destroy is a no-op, the copy made by Clone shares nothing.
func (a AnnotationMap) Destroy() {}
