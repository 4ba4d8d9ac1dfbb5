package apperrors

import "errors"

// appError is the single implementation of Error. Values are built by
// chaining: a package declares a base with New, derives family members with
// the New method, and call sites attach detail with Msg and Err before
// returning. Builder methods mutate the receiver and hand it back, so
// matching stays identity based all the way up the chain.
type appError struct {
	message string
	base    Error
	wrapped []error
	status  int
	expand  bool
	prefix  string
	suffix  string
}

func New(msg string) Error {
	return &appError{message: msg}
}

// format renders the message with whatever prefix and suffix were attached.
func (e *appError) format() string {
	msg := e.message
	if e.prefix != "" {
		msg = e.prefix + ": " + msg
	}
	if e.suffix != "" {
		msg += ": " + e.suffix
	}
	return msg
}

func (e *appError) Error() string {
	return e.format()
}

// ErrorAll includes the wrapped errors in the rendered message when the
// value was marked with SetExpandError. Validation errors use this to get
// per-field detail onto the wire while ordinary errors stay terse.
func (e *appError) ErrorAll() string {
	if !e.expand || len(e.wrapped) == 0 {
		return e.format()
	}
	msg := e.format() + ": "
	for i, err := range e.wrapped {
		if i > 0 {
			msg += ";"
		}
		msg += err.Error()
	}
	return msg
}

// New derives a child error. The child carries its own message, inherits
// the parent's status code, and matches the parent through Is.
func (e *appError) New(msg string) Error {
	return &appError{
		message: msg,
		status:  e.status,
		base:    e,
	}
}

func (e *appError) Msg(msg string) Error {
	e.message = msg
	return e
}

func (e *appError) Prefix(prefix string) Error {
	e.prefix = prefix
	return e
}

func (e *appError) Suffix(suffix string) Error {
	e.suffix = suffix
	return e
}

func (e *appError) MsgErr(msg string, err ...error) Error {
	e.message = msg
	e.wrapped = append(e.wrapped, err...)
	return e
}

func (e *appError) Err(err ...error) Error {
	e.wrapped = append(e.wrapped, err...)
	return e
}

func (e *appError) Unwrap() []error {
	return e.wrapped
}

// Is matches the value itself, any ancestor reachable through base, and
// anything wrapped via Err.
func (e *appError) Is(target error) bool {
	if e == target || e.base == target {
		return true
	}
	if e.base != nil && e.base.Is(target) {
		return true
	}
	for _, err := range e.wrapped {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (e *appError) SetExpandError(expand bool) Error {
	e.expand = expand
	return e
}

func (e *appError) SetStatusCode(code int) Error {
	e.status = code
	return e
}

func (e *appError) StatusCode() int {
	return e.status
}
