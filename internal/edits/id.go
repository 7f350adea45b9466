package edits

import "github.com/google/uuid"

// IDProviderFunc adapts a plain function into an IDProvider.
type IDProviderFunc func() (string, error)

// NewID calls the underlying function.
func (f IDProviderFunc) NewID() (string, error) {
	return f()
}

// NewUUIDProvider constructs an IDProvider that issues time-ordered UUIDv7 record identifiers.
func NewUUIDProvider() IDProvider {
	return IDProviderFunc(func() (string, error) {
		value, err := uuid.NewV7()
		if err != nil {
			return "", err
		}
		return value.String(), nil
	})
}
