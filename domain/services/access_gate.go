package services

import (
	"fmt"

	"investa/domain"
	"investa/domain/entities"
)

// Operation names an action the transport asks the gate about
type Operation string

const (
	OpInvestorRead      Operation = "investor.read"
	OpProfileUpdate     Operation = "profile.update"
	OpWalletRead        Operation = "wallet.read"
	OpHistoryRead       Operation = "history.read"
	OpDepositRequest    Operation = "deposit.request"
	OpWithdrawalRequest Operation = "withdrawal.request"
	OpContractRead      Operation = "contract.read"
	OpContractCreate    Operation = "contract.create"
	OpContractReinvest  Operation = "contract.reinvest"
	OpContractRefund    Operation = "contract.refund"
	OpRequestRead       Operation = "request.read"
	OpRegister          Operation = "register"
	OpInvestorActivate  Operation = "investor.activate"
	OpWalletCredit      Operation = "wallet.credit"
	OpContractAdmin     Operation = "contract.admin_update"
	OpContractSetTerms  Operation = "contract.set_terms"
	OpContractAccrue    Operation = "contract.accrue"
	OpContractReadAll   Operation = "contract.read_all"
	OpRequestReadAll    Operation = "request.read_all"
	OpRequestDecide     Operation = "request.decide"
	OpRequestAdjust     Operation = "request.adjust"
)

var investorScoped = map[Operation]bool{
	OpInvestorRead:      true,
	OpProfileUpdate:     true,
	OpWalletRead:        true,
	OpHistoryRead:       true,
	OpDepositRequest:    true,
	OpWithdrawalRequest: true,
	OpContractRead:      true,
	OpContractCreate:    true,
	OpContractReinvest:  true,
	OpContractRefund:    true,
	OpRequestRead:       true,
}

// IsInvestorScoped reports whether an investor may perform op on its own data
func (op Operation) IsInvestorScoped() bool {
	return investorScoped[op]
}

// AccessGate decides whether an identity may perform an operation on an investor's data
type AccessGate struct{}

// NewAccessGate creates the access gate
func NewAccessGate() *AccessGate {
	return &AccessGate{}
}

// Authorize returns nil when identity may perform op against targetInvestorID
func (g *AccessGate) Authorize(identity *entities.Identity, op Operation, targetInvestorID int64) error {
	if identity == nil {
		return domain.ErrUnauthenticated
	}

	switch identity.Role {
	case entities.RoleAdmin:
		return nil
	case entities.RoleInvestor:
		if !op.IsInvestorScoped() {
			return fmt.Errorf("%s requires admin: %w", op, domain.ErrForbidden)
		}
		if !identity.Owns(targetInvestorID) {
			return fmt.Errorf("%s on investor %d: %w", op, targetInvestorID, domain.ErrForbidden)
		}
		return nil
	default:
		return fmt.Errorf("unknown role %q: %w", identity.Role, domain.ErrForbidden)
	}
}
