package domain

import "time"

// TransactionType classifies how a transaction was made.
type TransactionType uint8

const (
	TypeChip TransactionType = iota
	TypeOnline
	TypeSwipe
	TypeUnknown
)

// String returns the label used in the transaction log and in reports.
func (t TransactionType) String() string {
	switch t {
	case TypeChip:
		return "Chip Transaction"
	case TypeOnline:
		return "Online Transaction"
	case TypeSwipe:
		return "Swipe Transaction"
	default:
		return "Unknown Transaction"
	}
}

// ParseTransactionType maps a log label to its type. Unrecognized labels
// map to TypeUnknown rather than failing; the label column is free text.
func ParseTransactionType(label string) TransactionType {
	switch label {
	case "Chip Transaction":
		return TypeChip
	case "Online Transaction":
		return TypeOnline
	case "Swipe Transaction":
		return TypeSwipe
	default:
		return TypeUnknown
	}
}

// Transaction is one record of the transaction log. Instances are built
// per line during a query execution and never persisted.
type Transaction struct {
	UserID        uint16
	CardID        uint8
	Time          time.Time
	Amount        int64 // signed cents
	Type          TransactionType
	MerchantID    int64
	MerchantCity  string
	MerchantState string
	Zip           uint32 // 0 = absent (online or foreign)
	MCC           uint32
	Errors        []string
	IsFraud       bool
}
