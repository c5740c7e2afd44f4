package field

import "github.com/goliatone/go-schemaform/pkg/model"

// ErrorEvent reports the validity of one error code for every field bound to
// Key, the dotted form of the field key ("address.city", "tags.0").
//
// Message is normally a string. A boolean Message is shorthand for Validity
// with no message. Validity counts as valid only when it is the boolean true.
type ErrorEvent struct {
	Key      string
	Code     string
	Message  any
	Validity any
}

// Invalid builds an event marking code as failing with an optional message.
func Invalid(key, code, message string) ErrorEvent {
	return ErrorEvent{Key: key, Code: code, Message: message, Validity: false}
}

// Valid builds an event clearing code.
func Valid(key, code string) ErrorEvent {
	return ErrorEvent{Key: key, Code: code, Validity: true}
}

func (e ErrorEvent) normalized() (message string, valid bool) {
	validity := e.Validity
	switch typed := e.Message.(type) {
	case bool:
		validity = typed
	case string:
		message = typed
	}
	flag, ok := validity.(bool)
	return message, ok && flag
}

// NoticeKind classifies controller notices.
type NoticeKind string

const (
	NoticeError      NoticeKind = "error"
	NoticeRevalidate NoticeKind = "revalidate"
	NoticeDestroy    NoticeKind = "destroy"
)

// Notice describes a state change applied by the controller. Observers see
// notices synchronously, in the order changes happen.
type Notice struct {
	Kind     NoticeKind
	FieldID  int
	Key      string
	Code     string
	Valid    bool
	Strategy model.DestroyStrategy
	// Reached counts the fields a revalidate broadcast visited.
	Reached int
}

// Observer receives controller notices.
type Observer func(Notice)
