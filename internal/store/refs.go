package store

import (
	"encoding/binary"
	"fmt"

	"github.com/utopialabs/utopia/internal/domain"
)

// Typed lookups over a snapshot. Each is one exact-key seek plus a decode.

// User fetches the user with the given id.
func (sn *Snapshot) User(id uint16) (domain.User, error) {
	value, ok, err := sn.Get(TableUsers, UserKey(id))
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return DecodeUser(value)
}

// Card fetches the card with the given composite id.
func (sn *Snapshot) Card(userID uint16, cardID uint8) (domain.Card, error) {
	value, ok, err := sn.Get(TableCards, CardKey(userID, cardID))
	if err != nil {
		return domain.Card{}, err
	}
	if !ok {
		return domain.Card{}, fmt.Errorf("card %d.%d: %w", userID, cardID, ErrNotFound)
	}
	return DecodeCard(value)
}

// Merchant fetches the merchant with the given id.
func (sn *Snapshot) Merchant(id int64) (domain.Merchant, error) {
	value, ok, err := sn.Get(TableMerchants, MerchantKey(id))
	if err != nil {
		return domain.Merchant{}, err
	}
	if !ok {
		return domain.Merchant{}, fmt.Errorf("merchant %d: %w", id, ErrNotFound)
	}
	return DecodeMerchant(value)
}

// State fetches the state with the given abbreviation.
func (sn *Snapshot) State(abbrev string) (domain.State, error) {
	value, ok, err := sn.Get(TableStates, StateKey(abbrev))
	if err != nil {
		return domain.State{}, err
	}
	if !ok {
		return domain.State{}, fmt.Errorf("state %q: %w", abbrev, ErrNotFound)
	}
	return DecodeState(value)
}

// ScanUsers visits every user. Key order is byte order of the encoded
// ids, so callers wanting numeric order must sort.
func (sn *Snapshot) ScanUsers(fn func(id uint16, u domain.User) error) error {
	return sn.Scan(TableUsers, func(key, value []byte) error {
		if len(key) != 2 {
			return fmt.Errorf("user key of %d bytes: %w", len(key), ErrMalformed)
		}
		u, err := DecodeUser(value)
		if err != nil {
			return err
		}
		return fn(binary.LittleEndian.Uint16(key), u)
	})
}
