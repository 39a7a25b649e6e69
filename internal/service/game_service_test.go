package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tips-service/internal/domain"
)

func sampleGame(vip bool, kickoff time.Time) GameInput {
	return GameInput{
		HomeTeam:   "Arsenal",
		AwayTeam:   "Chelsea",
		League:     "EPL",
		Prediction: "Both teams to score",
		Odds:       1.9,
		KickoffAt:  kickoff,
		IsVIP:      vip,
	}
}

func gameIDs(games []domain.Game) []string {
	ids := make([]string, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.ID)
	}
	return ids
}

func TestGameVisibilityByVIP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@x.com", "secret")

	kickoff := f.clock.Now().Add(24 * time.Hour)
	free, err := f.gameSvc.CreateGame(ctx, f.adminID, sampleGame(false, kickoff))
	require.NoError(t, err)
	vip, err := f.gameSvc.CreateGame(ctx, f.adminID, sampleGame(true, kickoff.Add(time.Hour)))
	require.NoError(t, err)

	games, err := f.gameSvc.ListGames(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{free.ID}, gameIDs(games))

	_, err = f.gameSvc.GetGame(ctx, alice.ID, vip.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := f.gameSvc.GetGame(ctx, alice.ID, free.ID)
	require.NoError(t, err)
	assert.Equal(t, free.ID, got.ID)

	games, err = f.gameSvc.ListGames(ctx, f.adminID)
	require.NoError(t, err)
	assert.Equal(t, []string{vip.ID, free.ID}, gameIDs(games))

	_, err = f.svc.GrantVIP(ctx, f.adminID, alice.ID, 1)
	require.NoError(t, err)
	games, err = f.gameSvc.ListGames(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, games, 2)

	// stored flag still set, but the expiry has passed
	f.clock.Advance(49 * time.Hour)
	games, err = f.gameSvc.ListGames(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{free.ID}, gameIDs(games))

	_, err = f.gameSvc.ListGames(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGameAdminLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	game, err := f.gameSvc.CreateGame(ctx, f.adminID, sampleGame(false, f.clock.Now()))
	require.NoError(t, err)
	assert.Equal(t, domain.GameResultPending, game.Result)

	input := sampleGame(true, f.clock.Now().Add(time.Hour))
	input.Prediction = "Away win"
	updated, err := f.gameSvc.UpdateGame(ctx, f.adminID, game.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Away win", updated.Prediction)
	assert.True(t, updated.IsVIP)

	settled, err := f.gameSvc.SetResult(ctx, f.adminID, game.ID, "won")
	require.NoError(t, err)
	assert.Equal(t, domain.GameResultWon, settled.Result)

	_, err = f.gameSvc.SetResult(ctx, f.adminID, game.ID, "draw")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "result")

	for _, blank := range []string{"", "   "} {
		_, err = f.gameSvc.SetResult(ctx, f.adminID, game.ID, blank)
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "result")
	}
	stored, err := f.gameSvc.GetGame(ctx, f.adminID, game.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GameResultWon, stored.Result)

	require.NoError(t, f.gameSvc.DeleteGame(ctx, f.adminID, game.ID))
	assert.ErrorIs(t, f.gameSvc.DeleteGame(ctx, f.adminID, game.ID), ErrNotFound)
	_, err = f.gameSvc.UpdateGame(ctx, f.adminID, game.ID, input)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.gameSvc.SetResult(ctx, f.adminID, game.ID, "lost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGameValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.gameSvc.CreateGame(context.Background(), f.adminID, GameInput{HomeTeam: "  ", Odds: 0.5})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"home_team", "away_team", "prediction", "odds", "kickoff_at"} {
		assert.Contains(t, verr.Fields, field)
	}
	assert.NotContains(t, verr.Fields, "league")
}

func TestAdminStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@x.com", "secret")
	bob := f.register(t, "bob", "b@x.com", "secret")

	_, err := f.svc.GrantVIP(ctx, f.adminID, alice.ID, 30)
	require.NoError(t, err)
	_, err = f.svc.Block(ctx, f.adminID, bob.ID)
	require.NoError(t, err)

	for i, result := range []string{"won", "won", "lost", "pending"} {
		g, err := f.gameSvc.CreateGame(ctx, f.adminID, sampleGame(i == 0, f.clock.Now()))
		require.NoError(t, err)
		_, err = f.gameSvc.SetResult(ctx, f.adminID, g.ID, result)
		require.NoError(t, err)
	}

	stats, err := f.stats.AdminStats(ctx, f.adminID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Accounts.Total)
	assert.EqualValues(t, 1, stats.Accounts.Admins)
	assert.EqualValues(t, 2, stats.Accounts.VIP)
	assert.EqualValues(t, 1, stats.Accounts.Blocked)
	assert.Equal(t, domain.GameStats{Total: 4, VIP: 1, Won: 2, Lost: 1, Pending: 1}, stats.Games)
	assert.InDelta(t, 2.0/3.0, stats.WinRate, 1e-9)
}
