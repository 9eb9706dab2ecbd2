package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utopialabs/utopia/internal/domain"
)

func TestParseLine(t *testing.T) {
	line := "12,1,2020,05,14,20:31,$45.23,Swipe Transaction,998877,Columbus,OH,43215,5812,,No"

	tx, err := ParseLine(line)
	require.NoError(t, err)

	assert.Equal(t, uint16(12), tx.UserID)
	assert.Equal(t, uint8(1), tx.CardID)
	assert.Equal(t, time.Date(2020, time.May, 14, 20, 31, 0, 0, time.Local), tx.Time)
	assert.Equal(t, int64(4523), tx.Amount)
	assert.Equal(t, domain.TypeSwipe, tx.Type)
	assert.Equal(t, int64(998877), tx.MerchantID)
	assert.Equal(t, "Columbus", tx.MerchantCity)
	assert.Equal(t, "OH", tx.MerchantState)
	assert.Equal(t, uint32(43215), tx.Zip)
	assert.Equal(t, uint32(5812), tx.MCC)
	assert.Nil(t, tx.Errors)
	assert.False(t, tx.IsFraud)
}

func TestParseLineAmounts(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"$12.34", 1234},
		{"$0.09", 9},
		{"-$5.00", -500},
		{"$-5.00", -500},
		{"$1000.00", 100000},
	}
	for _, tc := range cases {
		line := "1,0,2019,01,02,03:04," + tc.amount + ",Chip Transaction,5,Rome,Italy,,5812,,No"
		tx, err := ParseLine(line)
		require.NoError(t, err, tc.amount)
		assert.Equal(t, tc.want, tx.Amount, tc.amount)
	}
}

func TestParseLineQuotedErrors(t *testing.T) {
	line := `3,0,2018,11,30,23:59,$8.00,Online Transaction,42,ONLINE,,,4812,"Bad PIN,Insufficient Balance",Yes`

	tx, err := ParseLine(line)
	require.NoError(t, err)

	assert.Equal(t, domain.TypeOnline, tx.Type)
	assert.Equal(t, []string{"Bad PIN", "Insufficient Balance"}, tx.Errors)
	assert.True(t, tx.IsFraud)
	assert.Zero(t, tx.Zip)
}

func TestParseLineFloatFormattedZip(t *testing.T) {
	line := "1,0,2019,01,02,03:04,$1.00,Chip Transaction,5,Columbus,OH,43215.0,5812,,No"

	tx, err := ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, uint32(43215), tx.Zip)
}

func TestParseLineNegativeMerchantID(t *testing.T) {
	line := "1,0,2019,01,02,03:04,$1.00,Chip Transaction,-34241,Columbus,OH,43215,5812,,No"

	tx, err := ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, int64(-34241), tx.MerchantID)
}

func TestParseLineUnknownLabel(t *testing.T) {
	line := "1,0,2019,01,02,03:04,$1.00,Carrier Pigeon,5,Columbus,OH,43215,5812,,No"

	tx, err := ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, domain.TypeUnknown, tx.Type)
}

func TestParseLineMalformed(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"non-numeric user id", "abc,0,2019,01,02,03:04,$1.00,Chip Transaction,5,Columbus,OH,43215,5812,,No"},
		{"missing currency symbol", "1,0,2019,01,02,03:04,1.00,Chip Transaction,5,Columbus,OH,43215,5812,,No"},
		{"no cent separator", "1,0,2019,01,02,03:04,$100,Chip Transaction,5,Columbus,OH,43215,5812,,No"},
		{"unquoted error list", "1,0,2019,01,02,03:04,$1.00,Chip Transaction,5,Columbus,OH,43215,5812,Bad PIN,No"},
		{"truncated record", "1,0,2019,01,02"},
		{"bad zip", "1,0,2019,01,02,03:04,$1.00,Chip Transaction,5,Columbus,OH,zipless,5812,,No"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLine(tc.line)
			assert.Error(t, err)
		})
	}
}
