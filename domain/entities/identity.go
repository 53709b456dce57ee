package entities

// Identity is the authenticated caller resolved by the transport
type Identity struct {
	Role       Role
	InvestorID int64
}

// IsAdmin checks the identity's role
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Owns checks if the identity is scoped to the given investor
func (i *Identity) Owns(investorID int64) bool {
	return i != nil && i.InvestorID == investorID
}
