package research

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindSearch
	KindAllSourcesFailed
	KindFetch
	KindExtraction
	KindSummarization
	KindSynthesis
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSearch:
		return "search"
	case KindAllSourcesFailed:
		return "all_sources_failed"
	case KindFetch:
		return "fetch_error"
	case KindExtraction:
		return "extraction_error"
	case KindSummarization:
		return "summarization_error"
	case KindSynthesis:
		return "synthesis"
	default:
		return "internal_error"
	}
}

// PerSource reports whether failures of this kind only drop one source.
func (k Kind) PerSource() bool {
	return k == KindFetch || k == KindExtraction || k == KindSummarization
}

// Error is a classified pipeline error. Message is only set for validation
// errors, where it is already safe to show to a user.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with kind k.
func NewError(k Kind, err error) *Error {
	return &Error{Kind: k, Err: err}
}

// Errorf builds an *Error of kind k from a format string.
func Errorf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Err: fmt.Errorf(format, args...)}
}

var (
	ErrEmptyTopic   = &Error{Kind: KindValidation, Message: "Topic cannot be empty."}
	ErrTopicTooLong = &Error{Kind: KindValidation, Message: fmt.Sprintf("Topic must be at most %d characters.", MaxTopicLength)}
	ErrSourceCount  = &Error{Kind: KindValidation, Message: fmt.Sprintf("Number of sources must be between %d and %d.", MinSources, MaxSources)}
	ErrFormat       = &Error{Kind: KindValidation, Message: "Output format must be json or markdown."}
)

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// classify keeps an existing classification and otherwise wraps err as k.
func classify(err error, k Kind) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return NewError(k, err)
}

const (
	msgSearch     = "Unable to search. Please try again."
	msgNoSources  = "Could not retrieve any sources. Please try a different topic."
	msgAIService  = "AI service unavailable. Please try again later."
	msgUnexpected = "An unexpected error occurred. Please try again."
)

// UserMessage maps err onto the fixed vocabulary shown to clients. Raw error
// text never leaves this function.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return msgUnexpected
	}
	switch e.Kind {
	case KindValidation:
		if e.Message != "" {
			return e.Message
		}
		return msgUnexpected
	case KindSearch:
		return msgSearch
	case KindAllSourcesFailed:
		return msgNoSources
	case KindSynthesis:
		return msgAIService
	default:
		return msgUnexpected
	}
}
