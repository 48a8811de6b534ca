package util

// BoolValue returns the dereferenced bool or false when the pointer is nil.
func BoolValue(value *bool) bool {
	if value == nil {
		return false
	}
	return *value
}

// Ptr returns a pointer to a copy of value
func Ptr[T any](value T) *T {
	return &value
}
