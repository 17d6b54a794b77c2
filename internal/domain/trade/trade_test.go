package trade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.CardDefinition{
		{ID: 1, Name: "Phoenix", Rank: catalog.RankMythic},
		{ID: 2, Name: "Lantern Spirit", Rank: catalog.RankEvent},
		{ID: 3, Name: "Griffin", Rank: catalog.RankLegendary},
		{ID: 4, Name: "Wyvern", Rank: catalog.RankLegendary},
		{ID: 5, Name: "Slime", Rank: catalog.RankCommon},
	})
	require.NoError(t, err)
	return cat
}

func characters() (*ownership.Character, *ownership.Character) {
	alice := &ownership.Character{ID: "char-a", UserID: "alice", Name: "Aria", Collection: ownership.Collection{1, 3, 3}}
	bob := &ownership.Character{ID: "char-b", UserID: "bob", Name: "Bram", Collection: ownership.Collection{2, 4, 5}}
	return alice, bob
}

func TestCreate(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		name       string
		offer      int64
		want       int64
		hunting    bool
		targetChar string
		wantErr    error
	}{
		{name: "same rank", offer: 3, want: 4},
		{name: "mythic for event", offer: 1, want: 2},
		{name: "legendary for common", offer: 3, want: 5, wantErr: gameerr.ErrIncompatibleRank},
		{name: "mythic for legendary", offer: 1, want: 4, wantErr: gameerr.ErrIncompatibleRank},
		{name: "unknown card", offer: 3, want: 99, wantErr: gameerr.ErrCardNotFound},
		{name: "initiator does not hold card", offer: 4, want: 4, wantErr: gameerr.ErrCardNotOwned},
		{name: "only copy is hunting", offer: 1, want: 2, hunting: true, wantErr: gameerr.ErrCardNotOwned},
		{name: "trade with itself", offer: 3, want: 4, targetChar: "char-a", wantErr: gameerr.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alice, _ := characters()
			if tt.hunting {
				alice.Hunts = []ownership.Hunt{{ID: "h1", FamiliarID: tt.offer, EndsAt: now.Add(time.Hour)}}
			}
			targetChar := tt.targetChar
			if targetChar == "" {
				targetChar = "char-b"
			}

			req, err := Create("t1", alice, tt.offer, Party{UserID: "bob", CharacterID: targetChar, CardID: tt.want}, cat, now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, StatusPending, req.Status)
			require.Equal(t, Party{UserID: "alice", CharacterID: "char-a", CardID: tt.offer}, req.Initiator)
			require.Equal(t, now, req.CreatedAt)
		})
	}
}

func TestAccept_SwapsOneInstanceEachWay(t *testing.T) {
	rq := require.New(t)
	cat := testCatalog(t)
	alice, bob := characters()

	req, err := Create("t1", alice, 3, Party{UserID: "bob", CharacterID: bob.ID, CardID: 4}, cat, now)
	rq.NoError(err)

	got, err := Accept(req, "bob", alice, bob, now.Add(time.Minute))
	rq.NoError(err)
	rq.Equal(StatusAccepted, got.Request.Status)
	rq.Equal(now.Add(time.Minute), got.Request.ResolvedAt)

	rq.Equal(alice.Collection.Count(3)-1, got.Initiator.Collection.Count(3))
	rq.Equal(alice.Collection.Count(4)+1, got.Initiator.Collection.Count(4))
	rq.Equal(bob.Collection.Count(4)-1, got.Target.Collection.Count(4))
	rq.Equal(bob.Collection.Count(3)+1, got.Target.Collection.Count(3))
	rq.Equal(len(alice.Collection)+len(bob.Collection), len(got.Initiator.Collection)+len(got.Target.Collection))

	// inputs are untouched
	rq.Equal(ownership.Collection{1, 3, 3}, alice.Collection)
	rq.Equal(ownership.Collection{2, 4, 5}, bob.Collection)
}

func TestAccept_Revalidates(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		name    string
		mutate  func(alice, bob *ownership.Character)
		actor   string
		wantErr error
	}{
		{
			name:    "wrong actor",
			actor:   "alice",
			wantErr: gameerr.ErrUnauthorized,
		},
		{
			name: "initiator gave the card away",
			mutate: func(alice, _ *ownership.Character) {
				alice.Collection = ownership.Collection{3, 3}
			},
			actor:   "bob",
			wantErr: gameerr.ErrCardNoLongerOwned,
		},
		{
			name: "target no longer holds the card",
			mutate: func(_, bob *ownership.Character) {
				bob.Collection = ownership.Collection{4, 5}
			},
			actor:   "bob",
			wantErr: gameerr.ErrCardNoLongerOwned,
		},
		{
			name: "target sent the card hunting",
			mutate: func(_, bob *ownership.Character) {
				bob.Hunts = []ownership.Hunt{{ID: "h", FamiliarID: 2, EndsAt: now.Add(time.Hour)}}
			},
			actor:   "bob",
			wantErr: gameerr.ErrCardNoLongerOwned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alice, bob := characters()
			req, err := Create("t1", alice, 1, Party{UserID: "bob", CharacterID: bob.ID, CardID: 2}, cat, now)
			require.NoError(t, err)

			if tt.mutate != nil {
				tt.mutate(alice, bob)
			}
			_, err = Accept(req, tt.actor, alice, bob, now)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTerminalRequests(t *testing.T) {
	alice, bob := characters()
	pending := Request{
		ID:        "t1",
		Status:    StatusPending,
		Initiator: Party{UserID: "alice", CharacterID: alice.ID, CardID: 3},
		Target:    Party{UserID: "bob", CharacterID: bob.ID, CardID: 4},
	}

	for _, status := range []Status{StatusAccepted, StatusDeclined, StatusCancelled} {
		req := pending
		req.Status = status

		// status is checked before the actor, so even the wrong user sees RequestNotPending
		for _, actor := range []string{"alice", "bob", "mallory"} {
			_, err := Accept(req, actor, alice, bob, now)
			require.ErrorIs(t, err, gameerr.ErrRequestNotPending)
			_, err = Decline(req, actor, now)
			require.ErrorIs(t, err, gameerr.ErrRequestNotPending)
			_, err = Cancel(req, actor, now)
			require.ErrorIs(t, err, gameerr.ErrRequestNotPending)
		}
	}
}

func TestDeclineCancel(t *testing.T) {
	rq := require.New(t)
	req := Request{
		ID:        "t1",
		Status:    StatusPending,
		Initiator: Party{UserID: "alice"},
		Target:    Party{UserID: "bob"},
	}

	_, err := Decline(req, "alice", now)
	rq.ErrorIs(err, gameerr.ErrUnauthorized)
	rq.Equal(gameerr.KindAuthorization, gameerr.KindOf(err))

	_, err = Cancel(req, "bob", now)
	rq.ErrorIs(err, gameerr.ErrUnauthorized)

	declined, err := Decline(req, "bob", now)
	rq.NoError(err)
	rq.Equal(StatusDeclined, declined.Status)

	cancelled, err := Cancel(req, "alice", now)
	rq.NoError(err)
	rq.Equal(StatusCancelled, cancelled.Status)
	rq.Equal(StatusPending, req.Status)
}
