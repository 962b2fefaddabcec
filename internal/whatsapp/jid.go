package whatsapp

import (
	"regexp"
	"strings"

	"github.com/bjo163/wagateway/internal/domain"
	waTypes "go.mau.fi/whatsmeow/types"
)

// MinNumberLength is the shortest accepted individual number after sanitizing.
const MinNumberLength = 10

var nonDigit = regexp.MustCompile(`\D`)

// SanitizeNumber strips everything but digits, so "+62 812-3456" becomes "628123456".
func SanitizeNumber(number string) string {
	return nonDigit.ReplaceAllString(number, "")
}

// UserJID builds an individual chat id and enforces MinNumberLength.
func UserJID(number string) (waTypes.JID, error) {
	digits := SanitizeNumber(number)
	if len(digits) < MinNumberLength {
		return waTypes.EmptyJID, domain.NewValidationError("Nomor tidak valid")
	}
	return waTypes.NewJID(digits, waTypes.DefaultUserServer), nil
}

// RecipientJID builds an individual chat id without the length check.
func RecipientJID(number string) (waTypes.JID, error) {
	digits := SanitizeNumber(number)
	if digits == "" {
		return waTypes.EmptyJID, domain.NewValidationError("Nomor tidak valid")
	}
	return waTypes.NewJID(digits, waTypes.DefaultUserServer), nil
}

// GroupJID builds a group chat id. A trailing @g.us is accepted.
func GroupJID(groupID string) (waTypes.JID, error) {
	id := strings.TrimSuffix(strings.TrimSpace(groupID), "@"+waTypes.GroupServer)
	if id == "" || strings.ContainsAny(id, "@ ") {
		return waTypes.EmptyJID, domain.NewValidationError("ID grup tidak valid")
	}
	return waTypes.NewJID(id, waTypes.GroupServer), nil
}
