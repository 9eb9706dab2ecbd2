package query

import (
	"strconv"
	"strings"
	"time"
)

// The selector grammar is a closed table: every field belongs to one of
// four categories, each category admits a fixed operator set, and each
// operator constrains its operand count. The whole matrix is validated
// here, before any data is scanned.

// Field names accepted in selectors and properties.
const (
	FieldUserID           = "userID"
	FieldCardID           = "cardID"
	FieldMerchantID       = "merchantID"
	FieldFirstName        = "firstName"
	FieldLastName         = "lastName"
	FieldEmail            = "email"
	FieldPAN              = "pan"
	FieldCardType         = "cardType"
	FieldTransactionType  = "transactionType"
	FieldMerchantName     = "merchantName"
	FieldMerchantCategory = "merchantCategory"
	FieldIsFraud          = "isFraud"
	FieldAmount           = "amount"
	FieldTime             = "time"
	FieldCardExpMonth     = "cardExpMonth"
	FieldCardExpYear      = "cardExpYear"
	FieldCVV              = "cvv"
	FieldZip              = "zip"
	FieldMCC              = "mcc"
	FieldMerchantCity     = "merchantCity"
	FieldMerchantState    = "merchantState"
	FieldMerchantZip      = "merchantZip"
	FieldMerchantOnline   = "merchantOnline"
	FieldMerchantForeign  = "merchantForeign"
	FieldErrors           = "errors"
)

// Operator names accepted in selectors and properties.
const (
	OpIsEqual          = "isEqual"
	OpIsNotEqual       = "isNotEqual"
	OpIsOneOf          = "isOneOf"
	OpIsNotOneOf       = "isNotOneOf"
	OpLessThan         = "lessThan"
	OpLessThanEqual    = "lessThanEqual"
	OpGreaterThan      = "greaterThan"
	OpGreaterThanEqual = "greaterThanEqual"
	OpInRange          = "inRange"
	OpIsNotInRange     = "isNotInRange"
	OpContains         = "contains"
	OpContainsOnly     = "containsOnly"
	OpContainsOneOf    = "containsOneOf"
	OpContainsAllOf    = "containsAllOf"
	OpContainsNoneOf   = "containsNoneOf"
)

// PropertyOneOrMore is the only group-level condition: at least one member
// of the group satisfies the property's selector.
const PropertyOneOrMore = "one-or-more"

type fieldCategory int

const (
	categoryExact fieldCategory = iota
	categoryNumeric
	categoryLocation // matched against the merchant's location list
	categoryList     // matched against the transaction's error list
)

// valueKind declares how operand strings are typed per field.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindBool
	kindTime
)

type fieldInfo struct {
	category fieldCategory
	kind     valueKind
}

var fieldTable = map[string]fieldInfo{
	FieldUserID:           {categoryExact, kindInt},
	FieldCardID:           {categoryExact, kindInt},
	FieldMerchantID:       {categoryExact, kindInt},
	FieldFirstName:        {categoryExact, kindString},
	FieldLastName:         {categoryExact, kindString},
	FieldEmail:            {categoryExact, kindString},
	FieldPAN:              {categoryExact, kindString},
	FieldCardType:         {categoryExact, kindString},
	FieldTransactionType:  {categoryExact, kindString},
	FieldMerchantName:     {categoryExact, kindString},
	FieldMerchantCategory: {categoryExact, kindString},
	FieldIsFraud:          {categoryExact, kindBool},
	FieldAmount:           {categoryNumeric, kindInt},
	FieldTime:             {categoryNumeric, kindTime},
	FieldCardExpMonth:     {categoryNumeric, kindInt},
	FieldCardExpYear:      {categoryNumeric, kindInt},
	FieldCVV:              {categoryNumeric, kindInt},
	FieldZip:              {categoryNumeric, kindInt},
	FieldMCC:              {categoryNumeric, kindInt},
	FieldMerchantCity:     {categoryLocation, kindString},
	FieldMerchantState:    {categoryLocation, kindString},
	FieldMerchantZip:      {categoryLocation, kindInt},
	FieldMerchantOnline:   {categoryLocation, kindBool},
	FieldMerchantForeign:  {categoryLocation, kindBool},
	FieldErrors:           {categoryList, kindString},
}

type operandArity int

const (
	aritySingle operandArity = iota
	arityTwoPlus
	arityPairs
)

var operatorArity = map[string]operandArity{
	OpIsEqual:          aritySingle,
	OpIsNotEqual:       aritySingle,
	OpIsOneOf:          arityTwoPlus,
	OpIsNotOneOf:       arityTwoPlus,
	OpLessThan:         aritySingle,
	OpLessThanEqual:    aritySingle,
	OpGreaterThan:      aritySingle,
	OpGreaterThanEqual: aritySingle,
	OpInRange:          arityPairs,
	OpIsNotInRange:     arityPairs,
	OpContains:         aritySingle,
	OpContainsOnly:     aritySingle,
	OpContainsOneOf:    arityTwoPlus,
	OpContainsAllOf:    arityTwoPlus,
	OpContainsNoneOf:   arityTwoPlus,
}

var categoryOperators = map[fieldCategory]map[string]bool{
	categoryExact: {
		OpIsEqual: true, OpIsNotEqual: true, OpIsOneOf: true, OpIsNotOneOf: true,
	},
	categoryNumeric: {
		OpIsEqual: true, OpIsNotEqual: true, OpIsOneOf: true, OpIsNotOneOf: true,
		OpLessThan: true, OpLessThanEqual: true, OpGreaterThan: true,
		OpGreaterThanEqual: true, OpInRange: true, OpIsNotInRange: true,
	},
	categoryLocation: {
		OpContains: true, OpContainsOnly: true, OpContainsOneOf: true,
		OpContainsAllOf: true, OpContainsNoneOf: true,
	},
	categoryList: {
		OpContains: true, OpContainsOnly: true, OpContainsOneOf: true,
		OpContainsAllOf: true, OpContainsNoneOf: true,
	},
}

// compiledSelector is a validated selector with operands parsed into the
// field's declared type, ready for per-record evaluation.
type compiledSelector struct {
	field string
	info  fieldInfo
	op    string
	strs  []string // lowercased operands for string-kinded fields
	nums  []int64  // typed operands: ints, unix seconds, bools as 0/1
}

// compileSelector validates sel against the grammar and parses its
// operands. All failures are ValidationErrors with human-readable reasons.
func compileSelector(sel Selector) (compiledSelector, error) {
	info, ok := fieldTable[sel.Field]
	if !ok {
		return compiledSelector{}, validationf("Unknown selector field %q!", sel.Field)
	}
	arity, ok := operatorArity[sel.Type]
	if !ok {
		return compiledSelector{}, validationf("Unknown selector type %q!", sel.Type)
	}
	if !categoryOperators[info.category][sel.Type] {
		return compiledSelector{}, validationf("Selector type %q cannot be applied to field %q!", sel.Type, sel.Field)
	}

	switch arity {
	case aritySingle:
		if len(sel.Values) != 1 {
			return compiledSelector{}, validationf("Selector can only be matched against a single value!")
		}
	case arityTwoPlus:
		if len(sel.Values) < 2 {
			return compiledSelector{}, validationf("Selector must be matched against two or more values!")
		}
	case arityPairs:
		if len(sel.Values) == 0 || len(sel.Values)%2 != 0 {
			return compiledSelector{}, validationf("Selector must be matched against pairs of values!")
		}
	}

	cs := compiledSelector{field: sel.Field, info: info, op: sel.Type}
	for _, v := range sel.Values {
		switch info.kind {
		case kindString:
			cs.strs = append(cs.strs, strings.ToLower(v))
		case kindInt:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return compiledSelector{}, validationf("Value %q is not valid for field %q!", v, sel.Field)
			}
			cs.nums = append(cs.nums, n)
		case kindBool:
			b, ok := parseBoolValue(v)
			if !ok {
				return compiledSelector{}, validationf("Value %q is not valid for field %q!", v, sel.Field)
			}
			cs.nums = append(cs.nums, boolInt(b))
		case kindTime:
			n, err := parseTimeValue(v)
			if err != nil {
				return compiledSelector{}, validationf("Value %q is not valid for field %q!", v, sel.Field)
			}
			cs.nums = append(cs.nums, n)
		}
	}
	return cs, nil
}

func compileSelectors(sels []Selector) ([]compiledSelector, error) {
	compiled := make([]compiledSelector, 0, len(sels))
	for _, sel := range sels {
		cs, err := compileSelector(sel)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cs)
	}
	return compiled, nil
}

func compileProperties(props []Property) ([]compiledSelector, error) {
	compiled := make([]compiledSelector, 0, len(props))
	for _, prop := range props {
		if prop.Condition != PropertyOneOrMore {
			return nil, validationf("Unknown property condition %q!", prop.Condition)
		}
		cs, err := compileSelector(Selector{Field: prop.Field, Type: prop.Type, Values: prop.Values})
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cs)
	}
	return compiled, nil
}

// parseBoolValue accepts the operand spellings of boolean fields.
func parseBoolValue(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "1", "y", "on":
		return true, true
	case "no", "false", "0", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// parseTimeValue accepts RFC 3339 or integer Unix seconds.
func parseTimeValue(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Unix(), nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
