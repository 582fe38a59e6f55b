package recipient

import "strings"

// Kind tells where a recipient record came from.
type Kind string

const (
	KindMobileNumber Kind = "MobileNumber"
	KindContact      Kind = "Contact"
	KindAddress      Kind = "Address"
)

// Recipient is a payee as the send flow sees it. Any of the identifying
// fields may be empty.
type Recipient struct {
	Kind            Kind   `json:"kind,omitempty"`
	Name            string `json:"name,omitempty"`
	DisplayNumber   string `json:"displayNumber,omitempty"`
	E164PhoneNumber string `json:"e164PhoneNumber,omitempty"`
	Address         string `json:"address,omitempty"`
	ContactID       string `json:"contactId,omitempty"`
	Thumbnail       string `json:"thumbnailPath,omitempty"`
}

// Equivalence decides whether two recipients refer to the same payee.
// Implementations must be reflexive and commutative.
type Equivalence func(a, b Recipient) bool

// AreEquivalent is the default Equivalence. Two recipients match when they
// share an address (case-insensitive), an E.164 number, or a contact id.
// Recipients with none of those fall back to field equality.
func AreEquivalent(a, b Recipient) bool {
	if a == b {
		return true
	}
	if a.Address != "" && b.Address != "" {
		return strings.EqualFold(a.Address, b.Address)
	}
	if a.E164PhoneNumber != "" && b.E164PhoneNumber != "" {
		return a.E164PhoneNumber == b.E164PhoneNumber
	}
	if a.ContactID != "" && b.ContactID != "" {
		return a.ContactID == b.ContactID
	}
	return false
}

// Key returns a stable identity string for logs and diffs.
func (r Recipient) Key() string {
	switch {
	case r.Address != "":
		return "addr:" + strings.ToLower(r.Address)
	case r.E164PhoneNumber != "":
		return "e164:" + r.E164PhoneNumber
	case r.ContactID != "":
		return "contact:" + r.ContactID
	}
	return "name:" + r.Name + "|" + r.DisplayNumber
}
