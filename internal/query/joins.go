package query

import (
	"github.com/utopialabs/utopia/internal/domain"
	"github.com/utopialabs/utopia/internal/store"
)

// Joins memoizes reference lookups for the duration of one query
// execution. Each execution builds its own Joins over its own snapshot;
// nothing is shared across requests, so a reopened store can never leak
// stale records into a later query.
type Joins struct {
	snap      *store.Snapshot
	users     map[uint16]domain.User
	cards     map[uint32]domain.Card
	merchants map[int64]domain.Merchant
}

// NewJoins builds an empty join cache over snap.
func NewJoins(snap *store.Snapshot) *Joins {
	return &Joins{
		snap:      snap,
		users:     make(map[uint16]domain.User),
		cards:     make(map[uint32]domain.Card),
		merchants: make(map[int64]domain.Merchant),
	}
}

// UserCard resolves the user and card referenced by a transaction. An
// absent id is an internal error: the log and store are written together,
// so every referenced id must exist.
func (j *Joins) UserCard(userID uint16, cardID uint8) (domain.User, domain.Card, error) {
	user, ok := j.users[userID]
	if !ok {
		var err error
		user, err = j.snap.User(userID)
		if err != nil {
			return domain.User{}, domain.Card{}, err
		}
		j.users[userID] = user
	}

	cardKey := uint32(userID)<<8 | uint32(cardID)
	card, ok := j.cards[cardKey]
	if !ok {
		var err error
		card, err = j.snap.Card(userID, cardID)
		if err != nil {
			return domain.User{}, domain.Card{}, err
		}
		j.cards[cardKey] = card
	}

	return user, card, nil
}

// Merchant resolves the merchant referenced by a transaction.
func (j *Joins) Merchant(id int64) (domain.Merchant, error) {
	merchant, ok := j.merchants[id]
	if !ok {
		var err error
		merchant, err = j.snap.Merchant(id)
		if err != nil {
			return domain.Merchant{}, err
		}
		j.merchants[id] = merchant
	}
	return merchant, nil
}
