package amqp

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Symbol is an AMQP symbolic string.
type Symbol string

// UUID is a 128 bit identifier as defined in RFC 4122.
type UUID = uuid.UUID

// AMQPValue holds any Go value the package can encode as AMQP:
//
//	nil, bool, uint8, uint16, uint32, uint64, uint, int8, int16, int32,
//	int64, int, float32, float64, string, Symbol, []byte, time.Time, UUID,
//	[]interface{}, []string, []Symbol, map[interface{}]interface{},
//	map[string]interface{}, map[Symbol]interface{}, AnnotationMap
//
// Lists and maps may nest any of the above. Clone fails for anything else.
type AMQPValue struct {
	Value interface{}
}

// NewValue wraps v. v is not copied.
func NewValue(v interface{}) *AMQPValue {
	return &AMQPValue{Value: v}
}

func (v *AMQPValue) Clone() (Value, error) {
	c, err := copyValue(v.Value)
	if err != nil {
		return nil, err
	}
	return &AMQPValue{Value: c}, nil
}

// Destroy is a no-op, the copy made by Clone shares nothing.
func (v *AMQPValue) Destroy() {}

// copyValue returns a deep copy of v.
func copyValue(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil, bool,
		uint8, uint16, uint32, uint64, uint,
		int8, int16, int32, int64, int,
		float32, float64,
		string, Symbol, time.Time, UUID:
		return t, nil

	case []byte:
		return copyBytes(t), nil
	case []string:
		return append([]string(nil), t...), nil
	case []Symbol:
		return append([]Symbol(nil), t...), nil

	case []interface{}:
		if t == nil {
			return t, nil
		}
		c := make([]interface{}, len(t))
		for i := range t {
			var err error
			if c[i], err = copyValue(t[i]); err != nil {
				return nil, errorWrapf(err, "list item %d", i)
			}
		}
		return c, nil

	case map[interface{}]interface{}:
		c := make(map[interface{}]interface{}, len(t))
		for k, mv := range t {
			cv, err := copyValue(mv)
			if err != nil {
				return nil, errorWrapf(err, "map value %v", k)
			}
			c[k] = cv
		}
		return c, nil
	case AnnotationMap:
		c, err := copyValue(map[interface{}]interface{}(t))
		if err != nil {
			return nil, err
		}
		return AnnotationMap(c.(map[interface{}]interface{})), nil
	case map[string]interface{}:
		c := make(map[string]interface{}, len(t))
		for k, mv := range t {
			cv, err := copyValue(mv)
			if err != nil {
				return nil, errorWrapf(err, "map value %q", k)
			}
			c[k] = cv
		}
		return c, nil
	case map[Symbol]interface{}:
		c := make(map[Symbol]interface{}, len(t))
		for k, mv := range t {
			cv, err := copyValue(mv)
			if err != nil {
				return nil, errorWrapf(err, "map value %q", k)
			}
			c[k] = cv
		}
		return c, nil

	default:
		return nil, errorErrorf("cannot copy value of type %T", v)
	}
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

// absent reports whether v is nil, or an interface holding a nil pointer,
// map, slice or func.
func absent(v interface{}) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
