package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utopialabs/utopia/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(t.TempDir(), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestPutGet(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.Put(TableUsers, UserKey(12), []byte("payload")))

	snap := st.Snapshot()
	defer snap.Close()

	value, ok, err := snap.Get(TableUsers, UserKey(12))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), value)

	_, ok, err = snap.Get(TableUsers, UserKey(13))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTablesAreIsolated(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.Put(TableUsers, []byte{1, 0}, []byte("user")))
	require.NoError(t, st.Put(TableCards, []byte{1, 0}, []byte("card")))

	snap := st.Snapshot()
	defer snap.Close()

	value, ok, err := snap.Get(TableCards, []byte{1, 0})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("card"), value)
}

func TestScanVisitsOnlyTable(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.Put(TableUsers, UserKey(1), []byte("a")))
	require.NoError(t, st.Put(TableUsers, UserKey(2), []byte("b")))
	require.NoError(t, st.Put(TableMerchants, MerchantKey(7), []byte("m")))

	snap := st.Snapshot()
	defer snap.Close()

	var seen int
	err := snap.Scan(TableUsers, func(key, value []byte) error {
		seen++
		assert.Len(t, key, 2)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestTypedLookups(t *testing.T) {
	st := openTestStore(t)

	user := domain.User{FirstName: "Hazel", LastName: "Robinson", Email: "hazel@example.com"}
	buf, err := EncodeUser(user)
	require.NoError(t, err)
	require.NoError(t, st.Put(TableUsers, UserKey(12), buf))

	card := domain.Card{Type: domain.CardVisa, ExpMonth: 3, ExpYear: 27, CVV: 623, PAN: "4344676511950444"}
	buf, err = EncodeCard(card)
	require.NoError(t, err)
	require.NoError(t, st.Put(TableCards, CardKey(12, 1), buf))

	snap := st.Snapshot()
	defer snap.Close()

	gotUser, err := snap.User(12)
	require.NoError(t, err)
	assert.Equal(t, user, gotUser)

	gotCard, err := snap.Card(12, 1)
	require.NoError(t, err)
	assert.Equal(t, card, gotCard)

	_, err = snap.User(99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = snap.Merchant(404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScanUsers(t *testing.T) {
	st := openTestStore(t)

	for id := uint16(0); id < 3; id++ {
		buf, err := EncodeUser(domain.User{FirstName: "U", Email: "u@example.com"})
		require.NoError(t, err)
		require.NoError(t, st.Put(TableUsers, UserKey(id), buf))
	}

	snap := st.Snapshot()
	defer snap.Close()

	var ids []uint16
	err := snap.ScanUsers(func(id uint16, u domain.User) error {
		ids = append(ids, id)
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint16{0, 1, 2}, ids)
}
