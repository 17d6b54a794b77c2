package trade

import (
	"time"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s != StatusPending
}

// Party is one side of a trade: who offers, from which character, which card.
type Party struct {
	UserID      string
	CharacterID string
	CardID      int64
}

type Request struct {
	ID         string
	Status     Status
	Initiator  Party
	Target     Party
	CreatedAt  time.Time
	ResolvedAt time.Time
}

// Involves reports whether userID is either side of the request.
func (r Request) Involves(userID string) bool {
	return r.Initiator.UserID == userID || r.Target.UserID == userID
}

// Accepted is the result of a successful swap. Both characters are fresh copies.
type Accepted struct {
	Request   Request
	Initiator *ownership.Character
	Target    *ownership.Character
}

// Create validates a new offer and returns it in the pending state. Only the initiator's
// side is checked for ownership; the target's card is checked when the trade is accepted.
func Create(id string, initiator *ownership.Character, initiatorCard int64, target Party, cat *catalog.Catalog, now time.Time) (Request, error) {
	if initiator.ID == target.CharacterID {
		return Request{}, gameerr.ErrInvalidInput.Withf("a character cannot trade with itself")
	}

	offered, ok := cat.Lookup(initiatorCard)
	if !ok {
		return Request{}, gameerr.ErrCardNotFound.Withf("card %d does not exist", initiatorCard)
	}
	wanted, ok := cat.Lookup(target.CardID)
	if !ok {
		return Request{}, gameerr.ErrCardNotFound.Withf("card %d does not exist", target.CardID)
	}

	if !catalog.TradeCompatible(offered.Rank, wanted.Rank) {
		return Request{}, gameerr.ErrIncompatibleRank.Withf("cannot trade %s %s for %s %s",
			offered.Rank, offered.Name, wanted.Rank, wanted.Name)
	}

	if initiator.FreeCount(initiatorCard) < 1 {
		return Request{}, gameerr.ErrCardNotOwned.Withf("%s has no free copy of %s", initiator.Name, offered.Name)
	}

	return Request{
		ID:     id,
		Status: StatusPending,
		Initiator: Party{
			UserID:      initiator.UserID,
			CharacterID: initiator.ID,
			CardID:      initiatorCard,
		},
		Target:    target,
		CreatedAt: now,
	}, nil
}

// Accept swaps one instance each way. It is only valid for the target user and re-checks
// both holdings against the characters as they are now, not as they were at creation.
func Accept(req Request, actorUserID string, initiator, target *ownership.Character, now time.Time) (Accepted, error) {
	if req.Status.Terminal() {
		return Accepted{}, gameerr.ErrRequestNotPending.Withf("trade %s is already %s", req.ID, req.Status)
	}
	if actorUserID != req.Target.UserID {
		return Accepted{}, gameerr.ErrUnauthorized.Withf("only the recipient can accept this trade")
	}
	if initiator.ID != req.Initiator.CharacterID || target.ID != req.Target.CharacterID {
		return Accepted{}, gameerr.ErrInvalidInput.Withf("characters do not match trade %s", req.ID)
	}

	if initiator.FreeCount(req.Initiator.CardID) < 1 {
		return Accepted{}, gameerr.ErrCardNoLongerOwned.Withf("%s no longer holds the offered card", initiator.Name)
	}
	if target.FreeCount(req.Target.CardID) < 1 {
		return Accepted{}, gameerr.ErrCardNoLongerOwned.Withf("%s no longer holds the requested card", target.Name)
	}

	newInit := initiator.Clone()
	newTarget := target.Clone()

	// FreeCount above guarantees both removals succeed.
	newInit.Collection, _ = newInit.Collection.Remove(req.Initiator.CardID)
	newTarget.Collection, _ = newTarget.Collection.Remove(req.Target.CardID)
	newInit.Collection = newInit.Collection.Add(req.Target.CardID)
	newTarget.Collection = newTarget.Collection.Add(req.Initiator.CardID)

	req.Status = StatusAccepted
	req.ResolvedAt = now

	return Accepted{Request: req, Initiator: newInit, Target: newTarget}, nil
}

func Decline(req Request, actorUserID string, now time.Time) (Request, error) {
	return resolve(req, actorUserID, req.Target.UserID, StatusDeclined, now)
}

func Cancel(req Request, actorUserID string, now time.Time) (Request, error) {
	return resolve(req, actorUserID, req.Initiator.UserID, StatusCancelled, now)
}

func resolve(req Request, actor, allowed string, to Status, now time.Time) (Request, error) {
	if req.Status.Terminal() {
		return Request{}, gameerr.ErrRequestNotPending.Withf("trade %s is already %s", req.ID, req.Status)
	}
	if actor != allowed {
		return Request{}, gameerr.ErrUnauthorized.Withf("not allowed to mark trade %s as %s", req.ID, to)
	}
	req.Status = to
	req.ResolvedAt = now
	return req, nil
}
