// Package domain holds the lead pipeline's pure business rules: the status
// enumeration and the inbound-message auto-advance dispatch.
package domain

import "strings"

// Lead pipeline statuses. The enumeration is fixed; explicit status changes
// may move a lead to any member, in any direction.
const (
	StatusInitialContact = "Contacto Inicial"
	StatusInProgress     = "En proceso"
	StatusFollowUpA      = "Seguimiento A"
	StatusFollowUpB      = "Seguimiento B"
	StatusFollowUpOther  = "Seguimiento Otro"
	StatusCustomer       = "Cliente"
	StatusNotCustomer    = "No cliente"
)

// StatusClosed is the terminal-ish state that fresh inbound contact reopens.
const StatusClosed = StatusNotCustomer

var validStatuses = map[string]struct{}{
	StatusInitialContact: {},
	StatusInProgress:     {},
	StatusFollowUpA:      {},
	StatusFollowUpB:      {},
	StatusFollowUpOther:  {},
	StatusCustomer:       {},
	StatusNotCustomer:    {},
}

// IsValidStatus reports whether s is a member of the pipeline enumeration.
func IsValidStatus(s string) bool {
	_, ok := validStatuses[s]
	return ok
}

// Statuses returns the enumeration in pipeline order.
func Statuses() []string {
	return []string{
		StatusInitialContact,
		StatusInProgress,
		StatusFollowUpA,
		StatusFollowUpB,
		StatusFollowUpOther,
		StatusCustomer,
		StatusNotCustomer,
	}
}

// marker advances a lead when an inbound message in a given status contains
// the keyword. Matching is case-insensitive substring, not NLP.
type marker struct {
	status  string
	keyword string
	next    string
}

var advanceMarkers = []marker{
	{StatusInitialContact, "hola", StatusInProgress},
	{StatusInProgress, "me puedes dar info", StatusFollowUpA},
	{StatusFollowUpA, "quiero armar mi paquete", StatusFollowUpB},
}

// NextStatus returns the status an inbound message moves a lead to, and
// whether any move applies. A closed lead reopens on any inbound contact.
func NextStatus(current, messageBody string) (string, bool) {
	if current == StatusClosed {
		return StatusInitialContact, true
	}

	body := strings.ToLower(messageBody)
	for _, m := range advanceMarkers {
		if m.status == current && strings.Contains(body, m.keyword) {
			return m.next, true
		}
	}
	return current, false
}
