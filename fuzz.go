//go:build gofuzz
// +build gofuzz

package amqp

import (
	"bytes"
)

// FuzzUnmarshal decodes data as a message and, when that succeeds,
// re-encodes and clones the result.
func FuzzUnmarshal(data []byte) int {
	m, err := NewMessage(MessageAllocator(NewLimitAllocator(1 << 24)))
	if err != nil {
		panic(err)
	}
	defer m.Destroy()

	if m.UnmarshalBinary(data) != nil {
		return 0
	}
	if _, err := m.MarshalBinary(); err != nil {
		panic(err)
	}
	c, err := m.Clone()
	if err != nil {
		panic(err)
	}
	c.Destroy()
	return 1
}

// FuzzSections decodes data as each composite section type.
func FuzzSections(data []byte) int {
	new(MessageHeader).unmarshal(bytes.NewBuffer(data))
	new(MessageProperties).unmarshal(bytes.NewBuffer(data))
	readAny(bytes.NewBuffer(data))
	return 0
}
