package query

import (
	"fmt"
	"strings"

	"github.com/utopialabs/utopia/internal/domain"
)

// Per-record evaluation of a compiled selector. String and category
// comparisons are case-insensitive; numeric comparisons are exact.
// Location matching is field-specific: a selector on merchantCity never
// consults any other attribute of the same location record.

func (cs *compiledSelector) eval(tx *domain.Transaction, joins *Joins) (bool, error) {
	switch cs.info.category {
	case categoryExact, categoryNumeric:
		return cs.evalScalar(tx, joins)
	case categoryLocation:
		merchant, err := joins.Merchant(tx.MerchantID)
		if err != nil {
			return false, err
		}
		return cs.evalContainer(len(merchant.Locations), func(i, operand int) bool {
			return cs.matchLocation(merchant.Locations[i], operand)
		}), nil
	case categoryList:
		return cs.evalContainer(len(tx.Errors), func(i, operand int) bool {
			return strings.EqualFold(tx.Errors[i], cs.strs[operand])
		}), nil
	default:
		return false, fmt.Errorf("selector field %q has no category", cs.field)
	}
}

func (cs *compiledSelector) evalScalar(tx *domain.Transaction, joins *Joins) (bool, error) {
	if cs.info.kind == kindString {
		value, err := cs.stringValue(tx, joins)
		if err != nil {
			return false, err
		}
		value = strings.ToLower(value)
		switch cs.op {
		case OpIsEqual:
			return value == cs.strs[0], nil
		case OpIsNotEqual:
			return value != cs.strs[0], nil
		case OpIsOneOf:
			return containsString(cs.strs, value), nil
		case OpIsNotOneOf:
			return !containsString(cs.strs, value), nil
		}
		return false, fmt.Errorf("selector type %q unhandled for field %q", cs.op, cs.field)
	}

	value, err := cs.numericValue(tx, joins)
	if err != nil {
		return false, err
	}
	switch cs.op {
	case OpIsEqual:
		return value == cs.nums[0], nil
	case OpIsNotEqual:
		return value != cs.nums[0], nil
	case OpIsOneOf:
		return containsInt(cs.nums, value), nil
	case OpIsNotOneOf:
		return !containsInt(cs.nums, value), nil
	case OpLessThan:
		return value < cs.nums[0], nil
	case OpLessThanEqual:
		return value <= cs.nums[0], nil
	case OpGreaterThan:
		return value > cs.nums[0], nil
	case OpGreaterThanEqual:
		return value >= cs.nums[0], nil
	case OpInRange:
		return inAnyRange(cs.nums, value), nil
	case OpIsNotInRange:
		return !inAnyRange(cs.nums, value), nil
	}
	return false, fmt.Errorf("selector type %q unhandled for field %q", cs.op, cs.field)
}

func (cs *compiledSelector) stringValue(tx *domain.Transaction, joins *Joins) (string, error) {
	switch cs.field {
	case FieldFirstName, FieldLastName, FieldEmail:
		user, _, err := joins.UserCard(tx.UserID, tx.CardID)
		if err != nil {
			return "", err
		}
		switch cs.field {
		case FieldFirstName:
			return user.FirstName, nil
		case FieldLastName:
			return user.LastName, nil
		default:
			return user.Email, nil
		}
	case FieldPAN, FieldCardType:
		_, card, err := joins.UserCard(tx.UserID, tx.CardID)
		if err != nil {
			return "", err
		}
		if cs.field == FieldPAN {
			return card.PAN, nil
		}
		return card.Type.String(), nil
	case FieldTransactionType:
		return tx.Type.String(), nil
	case FieldMerchantName, FieldMerchantCategory:
		merchant, err := joins.Merchant(tx.MerchantID)
		if err != nil {
			return "", err
		}
		if cs.field == FieldMerchantName {
			return merchant.Name, nil
		}
		return merchant.Category.String(), nil
	}
	return "", fmt.Errorf("selector field %q has no string value", cs.field)
}

func (cs *compiledSelector) numericValue(tx *domain.Transaction, joins *Joins) (int64, error) {
	switch cs.field {
	case FieldUserID:
		return int64(tx.UserID), nil
	case FieldCardID:
		return int64(tx.CardID), nil
	case FieldMerchantID:
		return tx.MerchantID, nil
	case FieldIsFraud:
		return boolInt(tx.IsFraud), nil
	case FieldAmount:
		return tx.Amount, nil
	case FieldTime:
		return tx.Time.Unix(), nil
	case FieldZip:
		return int64(tx.Zip), nil
	case FieldMCC:
		return int64(tx.MCC), nil
	case FieldCardExpMonth, FieldCardExpYear, FieldCVV:
		_, card, err := joins.UserCard(tx.UserID, tx.CardID)
		if err != nil {
			return 0, err
		}
		switch cs.field {
		case FieldCardExpMonth:
			return int64(card.ExpMonth), nil
		case FieldCardExpYear:
			return int64(card.ExpYear), nil
		default:
			return int64(card.CVV), nil
		}
	}
	return 0, fmt.Errorf("selector field %q has no numeric value", cs.field)
}

// evalContainer applies a containment operator over a container of n
// members; match reports whether member i equals operand j.
func (cs *compiledSelector) evalContainer(n int, match func(i, operand int) bool) bool {
	operands := len(cs.strs)
	if operands == 0 {
		operands = len(cs.nums)
	}

	anyMember := func(operand int) bool {
		for i := 0; i < n; i++ {
			if match(i, operand) {
				return true
			}
		}
		return false
	}

	switch cs.op {
	case OpContains:
		return anyMember(0)
	case OpContainsOnly:
		if n == 0 {
			return false
		}
		for i := 0; i < n; i++ {
			if !match(i, 0) {
				return false
			}
		}
		return true
	case OpContainsOneOf:
		for j := 0; j < operands; j++ {
			if anyMember(j) {
				return true
			}
		}
		return false
	case OpContainsAllOf:
		for j := 0; j < operands; j++ {
			if !anyMember(j) {
				return false
			}
		}
		return true
	case OpContainsNoneOf:
		for j := 0; j < operands; j++ {
			if anyMember(j) {
				return false
			}
		}
		return true
	}
	return false
}

func (cs *compiledSelector) matchLocation(loc domain.Location, operand int) bool {
	switch cs.field {
	case FieldMerchantCity:
		return strings.EqualFold(loc.City, cs.strs[operand])
	case FieldMerchantState:
		return strings.EqualFold(loc.State, cs.strs[operand])
	case FieldMerchantZip:
		return int64(loc.Zip) == cs.nums[operand]
	case FieldMerchantOnline:
		return boolInt(loc.Online) == cs.nums[operand]
	case FieldMerchantForeign:
		return boolInt(loc.Foreign) == cs.nums[operand]
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func containsInt(values []int64, v int64) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// inAnyRange treats nums as (start, end) pairs with inclusive bounds.
func inAnyRange(nums []int64, v int64) bool {
	for i := 0; i+1 < len(nums); i += 2 {
		if v >= nums[i] && v <= nums[i+1] {
			return true
		}
	}
	return false
}
