package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/utopialabs/utopia/internal/domain"
)

// The transaction log is comma-delimited with a fixed column order:
// user id, card id, year, month, day, HH:MM, amount, type label,
// merchant id, merchant city, merchant state, merchant zip, mcc,
// a double-quoted comma-joined error list, and a Yes/No fraud flag.
// The error column is quote-aware in a nonstandard way: the field runs
// across embedded commas until a literal trailing quote.

type lineScanner struct {
	line string
	pos  int
}

func (sc *lineScanner) next(delim byte) (string, error) {
	if sc.pos > len(sc.line) {
		return "", fmt.Errorf("unexpected end of record")
	}
	idx := strings.IndexByte(sc.line[sc.pos:], delim)
	if idx < 0 {
		field := sc.line[sc.pos:]
		sc.pos = len(sc.line) + 1
		return field, nil
	}
	field := sc.line[sc.pos : sc.pos+idx]
	sc.pos += idx + 1
	return field, nil
}

// nextQuoted consumes comma-delimited pieces until one ends with a literal
// quote, then strips the surrounding quotes.
func (sc *lineScanner) nextQuoted() (string, error) {
	var field string
	for {
		piece, err := sc.next(',')
		if err != nil {
			return "", err
		}
		field += piece
		if field == "" || strings.HasSuffix(field, `"`) {
			break
		}
		field += ","
	}
	if field == "" {
		return "", nil
	}
	if len(field) < 2 || field[0] != '"' {
		return "", fmt.Errorf("error list %q is not quoted", field)
	}
	return field[1 : len(field)-1], nil
}

func (sc *lineScanner) nextUint(delim byte, bits int, column string) (uint64, error) {
	field, err := sc.next(delim)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(field), 10, bits)
	if err != nil {
		return 0, fmt.Errorf("column %s: %q is not an integer", column, field)
	}
	return v, nil
}

func (sc *lineScanner) nextInt(delim byte, column string) (int64, error) {
	field, err := sc.next(delim)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %q is not an integer", column, field)
	}
	return v, nil
}

// ParseLine turns one transaction log line into a typed record. Malformed
// numeric fields are errors, never silent defaults; a bad line means the
// log is corrupt and the whole query aborts.
func ParseLine(line string) (domain.Transaction, error) {
	sc := &lineScanner{line: line}
	var tx domain.Transaction

	userID, err := sc.nextUint(',', 16, "user id")
	if err != nil {
		return tx, err
	}
	cardID, err := sc.nextUint(',', 8, "card id")
	if err != nil {
		return tx, err
	}
	year, err := sc.nextUint(',', 16, "year")
	if err != nil {
		return tx, err
	}
	month, err := sc.nextUint(',', 8, "month")
	if err != nil {
		return tx, err
	}
	day, err := sc.nextUint(',', 8, "day")
	if err != nil {
		return tx, err
	}
	hour, err := sc.nextUint(':', 8, "hour")
	if err != nil {
		return tx, err
	}
	minute, err := sc.nextUint(',', 8, "minute")
	if err != nil {
		return tx, err
	}

	amount, err := sc.nextAmount()
	if err != nil {
		return tx, err
	}

	label, err := sc.next(',')
	if err != nil {
		return tx, err
	}

	merchantID, err := sc.nextInt(',', "merchant id")
	if err != nil {
		return tx, err
	}
	city, err := sc.next(',')
	if err != nil {
		return tx, err
	}
	state, err := sc.next(',')
	if err != nil {
		return tx, err
	}
	zip, err := sc.nextZip()
	if err != nil {
		return tx, err
	}
	mcc, err := sc.nextUint(',', 32, "mcc")
	if err != nil {
		return tx, err
	}
	errorList, err := sc.nextQuoted()
	if err != nil {
		return tx, err
	}
	fraud, err := sc.next(',')
	if err != nil {
		return tx, err
	}

	tx.UserID = uint16(userID)
	tx.CardID = uint8(cardID)
	// Same calendar rules as the log writer: a local-time instant built
	// from the date and HH:MM columns.
	tx.Time = time.Date(int(year), time.Month(month), int(day), int(hour), int(minute), 0, 0, time.Local)
	tx.Amount = amount
	tx.Type = domain.ParseTransactionType(label)
	tx.MerchantID = merchantID
	tx.MerchantCity = city
	tx.MerchantState = state
	tx.Zip = zip
	tx.MCC = uint32(mcc)
	tx.Errors = splitErrors(errorList)
	tx.IsFraud = fraud == "Yes"

	return tx, nil
}

// nextAmount parses a currency column: leading dollar sign, optional minus
// either before or after it, dot-separated dollars and cents. Returns
// signed cents.
func (sc *lineScanner) nextAmount() (int64, error) {
	field, err := sc.next(',')
	if err != nil {
		return 0, err
	}
	s := field

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	if !strings.HasPrefix(s, "$") {
		return 0, fmt.Errorf("column amount: %q has no currency symbol", field)
	}
	s = s[1:]
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	dollarStr, centStr, found := strings.Cut(s, ".")
	if !found {
		return 0, fmt.Errorf("column amount: %q has no cent separator", field)
	}
	dollars, err := strconv.ParseInt(dollarStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column amount: %q is not a currency value", field)
	}
	cents, err := strconv.ParseInt(centStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column amount: %q is not a currency value", field)
	}

	amount := dollars*100 + cents
	if negative {
		amount = -amount
	}
	return amount, nil
}

// nextZip parses the merchant zip column: empty means absent (online or
// foreign), and the writer may format the value as a float ("43215.0").
func (sc *lineScanner) nextZip() (uint32, error) {
	field, err := sc.next(',')
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(field)
	if s == "" {
		return 0, nil
	}
	if head, _, found := strings.Cut(s, "."); found {
		s = head
	}
	zip, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("column zip: %q is not a zip code", field)
	}
	return uint32(zip), nil
}

func splitErrors(list string) []string {
	if list == "" {
		return nil
	}
	return strings.Split(list, ",")
}
