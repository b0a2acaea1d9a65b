package ean

import "fmt"

// User-facing status messages
const (
	MessageSaved        = "Gespeichert"
	MessageSaveFailed   = "Fehler beim Speichern"
	MessageNetworkError = "Netzwerkfehler beim Speichern"
)

// StatusKind is the styling state of the status display
type StatusKind int

const (
	// StatusNeutral is the empty, unstyled state
	StatusNeutral StatusKind = iota
	// StatusSuccess is shown after the server accepted the EAN
	StatusSuccess
	// StatusError is shown after any failed save attempt
	StatusError
)

// String returns a human-readable name for the kind
func (k StatusKind) String() string {
	switch k {
	case StatusNeutral:
		return "neutral"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("StatusKind(%d)", int(k))
	}
}

// ClassName returns the CSS class the admin panel uses for this kind
func (k StatusKind) ClassName() string {
	switch k {
	case StatusSuccess:
		return "text-success"
	case StatusError:
		return "text-danger"
	default:
		return ""
	}
}

// Status is what the status display shows: a message and its styling
type Status struct {
	Message string
	Kind    StatusKind
}

// NeutralStatus is the cleared status: no text, no class
func NeutralStatus() Status {
	return Status{}
}

// SuccessStatus is the status after a successful save
func SuccessStatus() Status {
	return Status{Message: MessageSaved, Kind: StatusSuccess}
}

// ErrorStatus returns an error status, falling back to MessageSaveFailed
// when message is empty
func ErrorStatus(message string) Status {
	if message == "" {
		message = MessageSaveFailed
	}
	return Status{Message: message, Kind: StatusError}
}

// ClassName returns the CSS class for the status
func (s Status) ClassName() string {
	return s.Kind.ClassName()
}

// IsNeutral reports whether the status is cleared
func (s Status) IsNeutral() bool {
	return s.Kind == StatusNeutral && s.Message == ""
}
