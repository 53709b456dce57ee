package infrastructure

import (
	"investa/database"
	"investa/domain/interfaces"
	"investa/repository"
)

// UnitOfWorkFactory gives every unit of work its own transactional publisher
// over the shared event publisher
type UnitOfWorkFactory struct {
	repoFactory interface {
		CreateWithPublisher(publisher interfaces.TransactionalEventPublisher) interfaces.UnitOfWork
	}
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a database-backed factory
func NewUnitOfWorkFactory(db *database.DB, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		repoFactory:    repository.NewUnitOfWorkFactory(db),
		eventPublisher: eventPublisher,
	}
}

// Create creates a new UnitOfWork
func (f *UnitOfWorkFactory) Create() interfaces.UnitOfWork {
	return f.repoFactory.CreateWithPublisher(NewTransactionalPublisher(f.eventPublisher))
}
