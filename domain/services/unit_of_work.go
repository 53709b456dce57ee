package services

import (
	"context"
	"fmt"

	"investa/domain/interfaces"
)

// runInUnitOfWork begins a unit of work, runs fn and commits when fn succeeds.
// Any error rolls everything back and drops the buffered events.
func runInUnitOfWork(ctx context.Context, factory interfaces.UnitOfWorkFactory, fn func(uow interfaces.UnitOfWork) error) error {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			uow.Rollback()
			panic(r)
		}
	}()

	if err := fn(uow); err != nil {
		uow.Rollback()
		return err
	}

	if err := uow.Commit(); err != nil {
		uow.Rollback()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
