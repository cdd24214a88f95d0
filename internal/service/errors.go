package service

import "errors"

// Kind classifies failures surfaced to callers.
type Kind int

const (
	KindUnknown Kind = iota
	// KindMissingParameters: text, sourceLang or targetLang is empty.
	KindMissingParameters
	// KindTextTooLong: text exceeds the configured rune limit.
	KindTextTooLong
	// KindServiceUnavailable: the model credential is not configured.
	KindServiceUnavailable
	// KindTranslationFailed: the model call failed after all attempts.
	KindTranslationFailed
)

func (k Kind) String() string {
	switch k {
	case KindMissingParameters:
		return "missing_parameters"
	case KindTextTooLong:
		return "text_too_long"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindTranslationFailed:
		return "translation_failed"
	default:
		return "unknown"
	}
}

// Error is a caller-facing failure. Error() is safe to show to users; the
// wrapped cause is only for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is works against the
// sentinels below regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrMissingParameters  = &Error{Kind: KindMissingParameters, Message: "Missing required parameters"}
	ErrTextTooLong        = &Error{Kind: KindTextTooLong, Message: "Text exceeds maximum length"}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable, Message: "API key not configured"}
	ErrTranslationFailed  = &Error{Kind: KindTranslationFailed, Message: "Failed to get translation from AI model"}
)

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
