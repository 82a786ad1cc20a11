package scene

// Mixed holds a property that is either a single definite value or varies
// across a text range.
type Mixed[T comparable] struct {
	value T
	mixed bool
}

// Definite wraps a single value.
func Definite[T comparable](v T) Mixed[T] {
	return Mixed[T]{value: v}
}

// MixedValue returns the marker for a property that varies across the range.
func MixedValue[T comparable]() Mixed[T] {
	return Mixed[T]{mixed: true}
}

// Get returns the definite value, or false when the property is mixed.
func (m Mixed[T]) Get() (T, bool) {
	if m.mixed {
		var zero T
		return zero, false
	}
	return m.value, true
}

// IsMixed reports whether the property varies across the range.
func (m Mixed[T]) IsMixed() bool {
	return m.mixed
}

// Equal is true when both are mixed or both hold the same definite value.
func (m Mixed[T]) Equal(o Mixed[T]) bool {
	if m.mixed || o.mixed {
		return m.mixed == o.mixed
	}
	return m.value == o.value
}
