package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"investa/domain"
	"investa/domain/entities"
	"investa/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type investorService struct {
	uowFactory interfaces.UnitOfWorkFactory
	locker     *KeyedLocker
}

// NewInvestorService creates a new investor service
func NewInvestorService(uowFactory interfaces.UnitOfWorkFactory, locker *KeyedLocker) interfaces.InvestorService {
	return &investorService{
		uowFactory: uowFactory,
		locker:     locker,
	}
}

// Register creates an active investor account. The role cannot be changed afterwards.
func (s *investorService) Register(ctx context.Context, name, email string, role entities.Role) (*entities.Investor, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewValidationError("email", "is not a valid address")
	}
	if !role.IsValid() {
		return nil, domain.NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}

	investor := &entities.Investor{
		Name:   name,
		Email:  email,
		Role:   role,
		Active: true,
	}
	err := runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		if err := uow.InvestorRepository().Create(ctx, investor); err != nil {
			return fmt.Errorf("failed to create investor: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"investorID": investor.ID,
		"role":       investor.Role,
	}).Info("Registered investor")
	return investor, nil
}

func (s *investorService) GetInvestor(ctx context.Context, id int64) (*entities.Investor, error) {
	var investor *entities.Investor
	err := runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		var err error
		investor, err = getInvestor(ctx, uow, id, false)
		return err
	})
	return investor, err
}

func (s *investorService) ListInvestors(ctx context.Context) ([]*entities.Investor, error) {
	var investors []*entities.Investor
	err := runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		var err error
		investors, err = uow.InvestorRepository().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list investors: %w", err)
		}
		return nil
	})
	return investors, err
}

// UpdateProfile applies owner-editable fields
func (s *investorService) UpdateProfile(ctx context.Context, id int64, update entities.ProfileUpdate) (*entities.Investor, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, domain.NewValidationError("name", "cannot be empty")
	}
	if update.Email != nil {
		if _, err := mail.ParseAddress(strings.TrimSpace(*update.Email)); err != nil {
			return nil, domain.NewValidationError("email", "is not a valid address")
		}
	}

	unlock := s.locker.LockInvestor(id)
	defer unlock()

	var investor *entities.Investor
	err := runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		var err error
		investor, err = getInvestor(ctx, uow, id, true)
		if err != nil {
			return err
		}
		if update.Name != nil {
			investor.Name = strings.TrimSpace(*update.Name)
		}
		if update.Email != nil {
			investor.Email = strings.TrimSpace(*update.Email)
		}
		if update.ProfileComplete != nil {
			investor.ProfileComplete = *update.ProfileComplete
		}
		if err := uow.InvestorRepository().Update(ctx, investor); err != nil {
			return fmt.Errorf("failed to update investor: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return investor, nil
}

// SetActive enables or disables an investor account
func (s *investorService) SetActive(ctx context.Context, id int64, active bool) (*entities.Investor, error) {
	unlock := s.locker.LockInvestor(id)
	defer unlock()

	var investor *entities.Investor
	err := runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		var err error
		investor, err = getInvestor(ctx, uow, id, true)
		if err != nil {
			return err
		}
		investor.Active = active
		if err := uow.InvestorRepository().Update(ctx, investor); err != nil {
			return fmt.Errorf("failed to update investor: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"investorID": id,
		"active":     active,
	}).Info("Changed investor activation")
	return investor, nil
}

// getInvestor loads an investor, optionally taking its row lock, and maps a miss to ErrUnknownInvestor
func getInvestor(ctx context.Context, uow interfaces.UnitOfWork, id int64, forUpdate bool) (*entities.Investor, error) {
	var (
		investor *entities.Investor
		err      error
	)
	if forUpdate {
		investor, err = uow.InvestorRepository().LockForUpdate(ctx, id)
	} else {
		investor, err = uow.InvestorRepository().GetByID(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investor: %w", err)
	}
	if investor == nil {
		return nil, fmt.Errorf("investor %d: %w", id, domain.ErrUnknownInvestor)
	}
	return investor, nil
}

// getActiveInvestor is getInvestor with the row lock plus the activation check
func getActiveInvestor(ctx context.Context, uow interfaces.UnitOfWork, id int64) (*entities.Investor, error) {
	investor, err := getInvestor(ctx, uow, id, true)
	if err != nil {
		return nil, err
	}
	if !investor.Active {
		return nil, fmt.Errorf("investor %d: %w", id, domain.ErrInvestorInactive)
	}
	return investor, nil
}
