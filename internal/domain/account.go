package domain

import "time"

// Account is the authoritative state of a registered user.
type Account struct {
	ID                  string
	Username            string
	Email               string
	PasswordHash        string
	IsAdmin             bool
	HasPaid             bool
	VIPStartDate        *time.Time
	VIPExpiryDate       *time.Time
	VIPReference        string
	IsActive            bool
	IsBlocked           bool
	NeedsPasswordChange bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasVIPAccess reports whether the VIP flag is set and not yet expired at now.
func (a *Account) HasVIPAccess(now time.Time) bool {
	if a == nil || !a.HasPaid {
		return false
	}
	if a.VIPExpiryDate == nil {
		return false
	}
	return a.VIPExpiryDate.After(now)
}

// AccountStats aggregates account flags across the store.
type AccountStats struct {
	Total               int64
	Admins              int64
	VIP                 int64
	Blocked             int64
	Inactive            int64
	NeedsPasswordChange int64
}
