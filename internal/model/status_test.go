package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTournamentTransitions(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{TournamentStatusOpen, TournamentStatusFull, true},
		{TournamentStatusOpen, TournamentStatusStarted, true},
		{TournamentStatusFull, TournamentStatusOpen, true},
		{TournamentStatusFull, TournamentStatusStarted, true},
		{TournamentStatusStarted, TournamentStatusCompleted, true},
		{TournamentStatusOpen, TournamentStatusCompleted, false},
		{TournamentStatusStarted, TournamentStatusOpen, false},
		{TournamentStatusCompleted, TournamentStatusStarted, false},
		{"unknown", TournamentStatusOpen, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTournamentTransitionTo(tt.from, tt.to))
		})
	}
}

func TestWalletTxTransitions(t *testing.T) {
	assert.True(t, CanWalletTxTransitionTo(WalletTxStatusPending, WalletTxStatusCompleted))
	assert.True(t, CanWalletTxTransitionTo(WalletTxStatusPending, WalletTxStatusFailed))
	assert.False(t, CanWalletTxTransitionTo(WalletTxStatusCompleted, WalletTxStatusFailed))
	assert.False(t, CanWalletTxTransitionTo(WalletTxStatusFailed, WalletTxStatusCompleted))
	assert.False(t, CanWalletTxTransitionTo(WalletTxStatusCompleted, WalletTxStatusCompleted))
}

func TestTournamentHelpers(t *testing.T) {
	tour := &Tournament{MaxPlayers: 4, CurrentPlayers: 3, Status: TournamentStatusOpen, EntryFee: decimal.NewFromInt(50)}
	assert.False(t, tour.IsFull())
	assert.True(t, tour.AcceptsRegistration())
	assert.False(t, tour.IsFree())

	tour.CurrentPlayers = 4
	assert.True(t, tour.IsFull())

	tour.Status = TournamentStatusStarted
	assert.False(t, tour.AcceptsRegistration())

	assert.True(t, (&Tournament{}).IsFree())
	assert.True(t, IsValidTournamentType(TournamentTypeDuo))
	assert.False(t, IsValidTournamentType("duo"))
}

func TestParticipantHasResult(t *testing.T) {
	p := &Participant{}
	assert.False(t, p.HasResult(ResultWinner))

	r := ResultLoss
	p.Result = &r
	assert.True(t, p.HasResult(ResultLoss))
	assert.False(t, p.HasResult(ResultWinner))
	assert.False(t, IsValidResult("draw"))
}
