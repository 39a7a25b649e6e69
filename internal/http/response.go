package http

import (
	"time"

	"tips-service/internal/domain"
	"tips-service/internal/service"
)

type AccountResponse struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	IsAdmin             bool       `json:"is_admin"`
	HasPaid             bool       `json:"has_paid"`
	HasVIPAccess        bool       `json:"has_vip_access"`
	VIPStartDate        *time.Time `json:"vip_start_date,omitempty"`
	VIPExpiryDate       *time.Time `json:"vip_expiry_date,omitempty"`
	VIPReference        string     `json:"vip_reference,omitempty"`
	IsActive            bool       `json:"is_active"`
	IsBlocked           bool       `json:"is_blocked"`
	NeedsPasswordChange bool       `json:"needs_password_change"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type AuthResponse struct {
	Token     string          `json:"token"`
	TokenType string          `json:"token_type"`
	ExpiresIn int64           `json:"expires_in"`
	Account   AccountResponse `json:"account"`
}

// TempPasswordResponse carries the plaintext code; it is never retrievable again.
type TempPasswordResponse struct {
	AccountID         string `json:"account_id"`
	TemporaryPassword string `json:"temporary_password"`
}

type GameResponse struct {
	ID         string    `json:"id"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	League     string    `json:"league,omitempty"`
	Prediction string    `json:"prediction"`
	Odds       float64   `json:"odds"`
	KickoffAt  time.Time `json:"kickoff_at"`
	IsVIP      bool      `json:"is_vip"`
	Result     string    `json:"result"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type StatsResponse struct {
	Users struct {
		Total               int64 `json:"total"`
		Admins              int64 `json:"admins"`
		VIP                 int64 `json:"vip"`
		Blocked             int64 `json:"blocked"`
		Inactive            int64 `json:"inactive"`
		NeedsPasswordChange int64 `json:"needs_password_change"`
	} `json:"users"`
	Games struct {
		Total   int64 `json:"total"`
		VIP     int64 `json:"vip"`
		Won     int64 `json:"won"`
		Lost    int64 `json:"lost"`
		Pending int64 `json:"pending"`
	} `json:"games"`
	WinRate float64 `json:"win_rate"`
}

func (h *Handler) accountToResponse(a domain.Account) AccountResponse {
	return AccountResponse{
		ID:                  a.ID,
		Username:            a.Username,
		Email:               a.Email,
		IsAdmin:             a.IsAdmin,
		HasPaid:             a.HasPaid,
		HasVIPAccess:        a.HasVIPAccess(h.now()),
		VIPStartDate:        a.VIPStartDate,
		VIPExpiryDate:       a.VIPExpiryDate,
		VIPReference:        a.VIPReference,
		IsActive:            a.IsActive,
		IsBlocked:           a.IsBlocked,
		NeedsPasswordChange: a.NeedsPasswordChange,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func (h *Handler) authToResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{
		Token:     res.Token,
		TokenType: "Bearer",
		ExpiresIn: int64(res.ExpiresIn / time.Second),
		Account:   h.accountToResponse(*res.Account),
	}
}

func gameToResponse(g domain.Game) GameResponse {
	return GameResponse{
		ID:         g.ID,
		HomeTeam:   g.HomeTeam,
		AwayTeam:   g.AwayTeam,
		League:     g.League,
		Prediction: g.Prediction,
		Odds:       g.Odds,
		KickoffAt:  g.KickoffAt,
		IsVIP:      g.IsVIP,
		Result:     string(g.Result),
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
}

func statsToResponse(s *service.Stats) StatsResponse {
	var resp StatsResponse
	resp.Users.Total = s.Accounts.Total
	resp.Users.Admins = s.Accounts.Admins
	resp.Users.VIP = s.Accounts.VIP
	resp.Users.Blocked = s.Accounts.Blocked
	resp.Users.Inactive = s.Accounts.Inactive
	resp.Users.NeedsPasswordChange = s.Accounts.NeedsPasswordChange
	resp.Games.Total = s.Games.Total
	resp.Games.VIP = s.Games.VIP
	resp.Games.Won = s.Games.Won
	resp.Games.Lost = s.Games.Lost
	resp.Games.Pending = s.Games.Pending
	resp.WinRate = s.WinRate
	return resp
}
