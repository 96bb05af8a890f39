package amqp

// cloner is satisfied by the section interfaces: Header, Annotations,
// Properties and Value.
type cloner[T any] interface {
	Clone() (T, error)
	Destroy()
}

// slot holds the Message's own clone of one optional section.
type slot[T cloner[T]] struct {
	name string
	v    T
	ok   bool
}

// cloneOf clones v, treating a nil result as a failure. A value returned
// alongside an error is destroyed.
func cloneOf[T cloner[T]](name string, v T) (T, error) {
	c, err := v.Clone()
	if err == nil && absent(c) {
		err = errNilClone
	}
	if err != nil {
		if !absent(c) {
			c.Destroy()
		}
		var zero T
		return zero, &CloneError{Section: name, Err: err}
	}
	return c, nil
}

// set stores a clone of v, or clears the slot if v is absent. The stored
// value is only replaced once the clone has succeeded.
func (s *slot[T]) set(v T) error {
	if absent(v) {
		s.clear()
		return nil
	}

	c, err := cloneOf(s.name, v)
	if err != nil {
		return err
	}

	s.clear()
	s.v, s.ok = c, true
	debug(3, "%s: stored clone", s.name)
	return nil
}

// get returns a clone of the stored value, or the zero value if the slot
// is empty.
func (s *slot[T]) get() (T, error) {
	var zero T
	if !s.ok {
		return zero, nil
	}
	return cloneOf(s.name, s.v)
}

// copyTo stores a clone of s's value into dst, which must be empty.
func (s *slot[T]) copyTo(dst *slot[T]) error {
	if !s.ok {
		return nil
	}
	c, err := cloneOf(s.name, s.v)
	if err != nil {
		return err
	}
	dst.v, dst.ok = c, true
	return nil
}

func (s *slot[T]) clear() {
	if !s.ok {
		return
	}
	s.v.Destroy()
	var zero T
	s.v, s.ok = zero, false
	debug(3, "%s: destroyed", s.name)
}
