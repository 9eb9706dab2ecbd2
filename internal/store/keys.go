package store

import "encoding/binary"

// Table names. Records from every table share one Badger keyspace, so each
// key is prefixed with its table name; see tableKey.
const (
	TableUsers     = "users"
	TableCards     = "cards"
	TableMerchants = "merchants"
	TableStates    = "states"
)

// UserKey encodes a 16-bit user id as a store key.
func UserKey(id uint16) []byte {
	key := make([]byte, 2)
	binary.LittleEndian.PutUint16(key, id)
	return key
}

// CardKey packs a user id and card id into a 3-byte composite key.
func CardKey(userID uint16, cardID uint8) []byte {
	key := make([]byte, 3)
	binary.LittleEndian.PutUint16(key, userID)
	key[2] = cardID
	return key
}

// MerchantKey encodes a 64-bit merchant id as a store key.
func MerchantKey(id int64) []byte {
	key := make([]byte, 8)
	binary.LittleEndian.PutUint64(key, uint64(id))
	return key
}

// StateKey encodes a state abbreviation as a store key.
func StateKey(abbrev string) []byte {
	return []byte(abbrev)
}

func tableKey(table string, key []byte) []byte {
	full := make([]byte, 0, len(table)+1+len(key))
	full = append(full, table...)
	full = append(full, '_')
	return append(full, key...)
}

func tablePrefix(table string) []byte {
	return append([]byte(table), '_')
}
