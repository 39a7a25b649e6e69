// Package policy decides what an account may do based on its current flags.
// Functions here are pure: they never touch storage and never read the clock.
package policy

import (
	"time"

	"tips-service/internal/domain"
)

// Action names an operation subject to authorization.
type Action string

const (
	ActionRegister       Action = "register"
	ActionLogin          Action = "login"
	ActionViewSelf       Action = "view-self"
	ActionViewGames      Action = "view-games"
	ActionChangePassword Action = "change-password"
	ActionCreatePost     Action = "create-post"
	ActionDeletePost     Action = "delete-post"

	ActionCreateGame        Action = "create-game"
	ActionUpdateGame        Action = "update-game"
	ActionDeleteGame        Action = "delete-game"
	ActionListUsers         Action = "list-users"
	ActionViewStats         Action = "view-stats"
	ActionGrantVIP          Action = "grant-vip"
	ActionRevokeVIP         Action = "revoke-vip"
	ActionBlock             Action = "block"
	ActionUnblock           Action = "unblock"
	ActionIssueTempPassword Action = "issue-temp-password"
	ActionDeleteAnyPost     Action = "delete-any-post"
)

// Reason explains a denial.
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonDeactivated     Reason = "deactivated"
	ReasonBlocked         Reason = "blocked"
	ReasonNotAdmin        Reason = "not-admin"
	ReasonNotOwner        Reason = "not-owner"
	ReasonUnknownAction   Reason = "unknown-action"
)

// Decision is the outcome of CanPerform.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason Reason) Decision { return Decision{Reason: reason} }

var adminActions = map[Action]struct{}{
	ActionCreateGame:        {},
	ActionUpdateGame:        {},
	ActionDeleteGame:        {},
	ActionListUsers:         {},
	ActionViewStats:         {},
	ActionGrantVIP:          {},
	ActionRevokeVIP:         {},
	ActionBlock:             {},
	ActionUnblock:           {},
	ActionIssueTempPassword: {},
	ActionDeleteAnyPost:     {},
}

var ownerActions = map[Action]struct{}{
	ActionChangePassword: {},
	ActionCreatePost:     {},
	ActionDeletePost:     {},
}

// IsAdminAction reports whether action requires the admin flag.
func IsAdminAction(action Action) bool {
	_, ok := adminActions[action]
	return ok
}

// CanPerform evaluates action for actor against target. actor is nil for
// unauthenticated callers; target is nil when the action has no subject, in
// which case owner actions apply to the actor itself.
//
// For ActionLogin, actor is the account whose credentials were just verified.
func CanPerform(action Action, actor, target *domain.Account) Decision {
	if action == ActionRegister {
		return allow()
	}
	if actor == nil {
		if action == ActionLogin {
			return allow()
		}
		return deny(ReasonUnauthenticated)
	}

	if !actor.IsActive {
		return deny(ReasonDeactivated)
	}
	if actor.IsBlocked {
		return deny(ReasonBlocked)
	}

	switch action {
	case ActionLogin, ActionViewSelf, ActionViewGames:
		return allow()
	}

	if IsAdminAction(action) {
		if !actor.IsAdmin {
			return deny(ReasonNotAdmin)
		}
		return allow()
	}

	if _, ok := ownerActions[action]; ok {
		if target == nil || target.ID == actor.ID || actor.IsAdmin {
			return allow()
		}
		return deny(ReasonNotOwner)
	}

	return deny(ReasonUnknownAction)
}

// CanViewVIP reports whether actor sees the full game catalogue rather than the
// free subset. VIP access lapses at vipExpiryDate even if the stored flag is set.
func CanViewVIP(actor *domain.Account, now time.Time) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin || actor.HasVIPAccess(now)
}

// VisibleGames filters games down to what actor may see.
func VisibleGames(actor *domain.Account, games []domain.Game, now time.Time) []domain.Game {
	if CanViewVIP(actor, now) {
		return games
	}
	visible := make([]domain.Game, 0, len(games))
	for _, g := range games {
		if !g.IsVIP {
			visible = append(visible, g)
		}
	}
	return visible
}
