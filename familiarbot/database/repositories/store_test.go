package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/familiars/familiarbot/database/models"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
	"github.com/ellavondegurechaff/familiars/internal/domain/trade"
)

func TestTradeMapping(t *testing.T) {
	created := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		req  trade.Request
	}{
		{
			name: "pending",
			req: trade.Request{
				ID:        "t1",
				Status:    trade.StatusPending,
				Initiator: trade.Party{UserID: "alice", CharacterID: "aria", CardID: 3},
				Target:    trade.Party{UserID: "bob", CharacterID: "bram", CardID: 4},
				CreatedAt: created,
			},
		},
		{
			name: "accepted",
			req: trade.Request{
				ID:         "t2",
				Status:     trade.StatusAccepted,
				Initiator:  trade.Party{UserID: "alice", CharacterID: "aria", CardID: 1},
				Target:     trade.Party{UserID: "bob", CharacterID: "bram", CardID: 2},
				CreatedAt:  created,
				ResolvedAt: created.Add(time.Minute),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := fromTrade(tt.req)
			require.Equal(t, string(tt.req.Status), row.Status)
			require.Equal(t, tt.req.Initiator.CardID, row.InitiatorCardID)
			require.Equal(t, tt.req.Target.CharacterID, row.TargetCharacterID)
			require.Equal(t, tt.req, toTrade(row))
		})
	}
}

func TestToHunt(t *testing.T) {
	started := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	row := models.Hunt{
		ID:         "h1",
		FamiliarID: 4,
		LocationID: "marsh",
		StartedAt:  started,
		EndsAt:     started.Add(time.Hour),
	}
	require.Equal(t, ownership.Hunt{
		ID:         "h1",
		FamiliarID: 4,
		LocationID: "marsh",
		StartedAt:  started,
		EndsAt:     started.Add(time.Hour),
	}, toHunt(row))
}
