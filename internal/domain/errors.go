package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ValidationError is returned for malformed input, wrong target roles and
// unapproved institutions. Nothing has been mutated when it is returned.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	if e.Reason == "" {
		return "invalid input"
	}
	return "invalid input: " + e.Reason
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

// ConflictError reports an invariant violation, chiefly a second active
// delegation for the same request.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string {
	if e.Reason == "" {
		return "conflict"
	}
	return "conflict: " + e.Reason
}

func (e ConflictError) Is(target error) bool {
	_, ok := target.(ConflictError)
	if ok {
		return true
	}
	_, ok = target.(*ConflictError)
	return ok
}

// StateError is returned when an entity is not in a state that admits the
// requested operation.
type StateError struct {
	Reason string
}

func (e StateError) Error() string {
	if e.Reason == "" {
		return "invalid state"
	}
	return "invalid state: " + e.Reason
}

func (e StateError) Is(target error) bool {
	_, ok := target.(StateError)
	if ok {
		return true
	}
	_, ok = target.(*StateError)
	return ok
}

// PermissionError is returned when the actor's role or ownership does not
// authorize the operation.
type PermissionError struct {
	Reason string
}

func (e PermissionError) Error() string {
	if e.Reason == "" {
		return "permission denied"
	}
	return "permission denied: " + e.Reason
}

func (e PermissionError) Is(target error) bool {
	_, ok := target.(PermissionError)
	if ok {
		return true
	}
	_, ok = target.(*PermissionError)
	return ok
}

var (
	ErrNotFound   = NotFoundError{}
	ErrValidation = ValidationError{}
	ErrConflict   = ConflictError{}
	ErrState      = StateError{}
	ErrPermission = PermissionError{}
)
