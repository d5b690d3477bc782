package service

import (
	"github.com/northgate/helpdesk/internal/domain"
	"github.com/northgate/helpdesk/internal/repository"
)

// ScopeFor returns the listing filter that applies to user. Technicians and
// administrators see every ticket; everyone else sees only their own.
func ScopeFor(user *domain.User) repository.TicketFilter {
	if user != nil && user.Role.Privileged() {
		return repository.TicketFilter{}
	}
	var id int64
	if user != nil {
		id = user.ID
	}
	return repository.TicketFilter{CreatorID: &id}
}

// CanAccess applies the listing predicate to a single ticket.
func CanAccess(user *domain.User, ticket *domain.Ticket) bool {
	if user == nil || ticket == nil {
		return false
	}
	return user.Role.Privileged() || ticket.OwnedBy(user.ID)
}
