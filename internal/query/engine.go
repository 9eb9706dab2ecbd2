// Package query implements the transaction query engine: a streaming scan
// of the transaction log filtered by a closed selector grammar, joined
// against the reference store, then grouped, sorted, truncated, or counted
// into a generic report tree.
package query

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/utopialabs/utopia/internal/domain"
	"github.com/utopialabs/utopia/internal/report"
	"github.com/utopialabs/utopia/internal/store"
)

// Engine executes queries. It holds no per-query state: every Run opens
// its own store snapshot and join cache, so concurrent executions need no
// coordination.
type Engine struct {
	store   *store.Store
	logPath string
	logger  *slog.Logger
}

// NewEngine constructs an Engine reading the given transaction log and
// reference store.
func NewEngine(st *store.Store, logPath string, logger *slog.Logger) *Engine {
	return &Engine{store: st, logPath: logPath, logger: logger}
}

// Run validates opts, streams the log through the filtering and grouping
// pipeline, and returns the result tree. Validation failures are
// ValidationErrors; everything else is internal. No partial results: the
// tree is built only after the whole scan succeeds.
func (e *Engine) Run(opts Options) (*report.Node, error) {
	selectors, err := compileSelectors(opts.Selectors)
	if err != nil {
		return nil, err
	}
	properties, err := compileProperties(opts.Properties)
	if err != nil {
		return nil, err
	}

	snap := e.store.Snapshot()
	defer snap.Close()
	joins := NewJoins(snap)

	groups, err := e.scan(opts, selectors, joins)
	if err != nil {
		return nil, err
	}

	if err := pruneGroups(groups, properties, joins); err != nil {
		return nil, err
	}

	e.logger.Debug("query pipeline complete",
		"group_by", opts.GroupBy.String(),
		"groups", len(groups),
		"selectors", len(selectors),
		"properties", len(properties),
	)

	if opts.CountOnly {
		return buildCountTree(opts, groups)
	}
	return e.buildResultTree(opts, groups, joins)
}

// scan streams the log once, applying the strict pre-filter and every
// selector to each record, and buckets survivors by the grouping
// dimension.
func (e *Engine) scan(opts Options, selectors []compiledSelector, joins *Joins) (map[string][]domain.Transaction, error) {
	file, err := os.Open(e.logPath)
	if err != nil {
		return nil, fmt.Errorf("open transaction log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// First line is the header.
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read transaction log: %w", err)
		}
		return map[string][]domain.Transaction{}, nil
	}

	groups := make(map[string][]domain.Transaction)
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		tx, err := ParseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("transaction log line %d: %w", lineNo, err)
		}

		if opts.Strict && (tx.IsFraud || len(tx.Errors) > 0) {
			continue
		}

		keep := true
		for i := range selectors {
			ok, err := selectors[i].eval(&tx, joins)
			if err != nil {
				return nil, err
			}
			if !ok {
				keep = false
				break
			}
		}
		if !keep {
			continue
		}

		key, ok := groupKey(opts.GroupBy, &tx)
		if !ok {
			continue
		}
		groups[key] = append(groups[key], tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transaction log: %w", err)
	}
	return groups, nil
}

// groupKey buckets a transaction, or excludes it from the chosen
// dimension: empty cities are not a city group, and state values longer
// than two letters are foreign country labels, not states.
func groupKey(dim GroupBy, tx *domain.Transaction) (string, bool) {
	switch dim {
	case GroupCity:
		if tx.MerchantCity == "" {
			return "", false
		}
		return tx.MerchantCity, true
	case GroupState:
		if len(tx.MerchantState) != 2 {
			return "", false
		}
		return tx.MerchantState, true
	case GroupMonth:
		return tx.Time.UTC().Month().String(), true
	default:
		return "", true
	}
}

// pruneGroups drops every group in which no member satisfies each
// property. Properties are existential: the bare selector is evaluated
// over the group's members, with no filtering logic of its own.
func pruneGroups(groups map[string][]domain.Transaction, properties []compiledSelector, joins *Joins) error {
	for p := range properties {
		for key, members := range groups {
			satisfied := false
			for i := range members {
				ok, err := properties[p].eval(&members[i], joins)
				if err != nil {
					return err
				}
				if ok {
					satisfied = true
					break
				}
			}
			if !satisfied {
				delete(groups, key)
			}
		}
	}
	return nil
}

func sortedKeys(groups map[string][]domain.Transaction) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var groupAttrNames = map[GroupBy]string{
	GroupCity:  "City",
	GroupState: "State",
	GroupMonth: "Month",
}

// buildResultTree renders normal mode: every group sorted by amount and
// truncated to the member limit.
func (e *Engine) buildResultTree(opts Options, groups map[string][]domain.Transaction, joins *Joins) (*report.Node, error) {
	root := report.NewNode("Data")
	list := root.AddChild("Transactions")
	list.SetAttr("GroupedBy", opts.GroupBy.String())

	for _, key := range sortedKeys(groups) {
		members := groups[key]
		sort.SliceStable(members, func(i, j int) bool {
			if opts.Order == Ascending {
				return members[i].Amount < members[j].Amount
			}
			return members[i].Amount > members[j].Amount
		})
		if opts.Count > 0 && len(members) > opts.Count {
			members = members[:opts.Count]
		}

		result := list.AddChild("Result")
		if attr, ok := groupAttrNames[opts.GroupBy]; ok {
			result.SetAttr(attr, key)
		}
		for i := range members {
			if err := e.addTransaction(result, &members[i], joins, opts.Verbose); err != nil {
				return nil, err
			}
		}
	}
	return root, nil
}

// buildCountTree renders count-only mode: groups ordered by size,
// truncated to the group limit, one count per group key.
func buildCountTree(opts Options, groups map[string][]domain.Transaction) (*report.Node, error) {
	type groupCount struct {
		key   string
		count int
	}
	counts := make([]groupCount, 0, len(groups))
	for _, key := range sortedKeys(groups) {
		counts = append(counts, groupCount{key: key, count: len(groups[key])})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		if opts.Order == Ascending {
			return counts[i].count < counts[j].count
		}
		return counts[i].count > counts[j].count
	})
	if opts.Count > 0 && len(counts) > opts.Count {
		counts = counts[:opts.Count]
	}

	root := report.NewNode("Data")
	list := root.AddChild("TransactionCounts")
	list.SetAttr("GroupedBy", opts.GroupBy.String())
	for _, gc := range counts {
		result := list.AddChild("Result")
		if attr, ok := groupAttrNames[opts.GroupBy]; ok {
			result.SetAttr(attr, gc.key)
		}
		result.AddString("Count", strconv.Itoa(gc.count))
	}
	return root, nil
}

// addTransaction renders one transaction. Verbose embeds the joined user,
// card, and merchant records; otherwise only bare ids and the mcc appear.
func (e *Engine) addTransaction(parent *report.Node, tx *domain.Transaction, joins *Joins, verbose bool) error {
	node := parent.AddChild("Transaction")

	if !verbose {
		node.SetAttr("UserID", strconv.FormatUint(uint64(tx.UserID), 10))
		node.SetAttr("CardID", strconv.FormatUint(uint64(tx.CardID), 10))
		node.SetAttr("MerchantID", strconv.FormatInt(tx.MerchantID, 10))
	}

	node.AddString("Amount", FormatAmount(tx.Amount))
	node.AddString("DateTime", tx.Time.Format("15:04:05 01/02/2006"))
	node.AddString("TransactionType", tx.Type.String())

	if verbose {
		user, card, err := joins.UserCard(tx.UserID, tx.CardID)
		if err != nil {
			return err
		}
		userNode := node.AddChild("User")
		userNode.SetAttr("ID", strconv.FormatUint(uint64(tx.UserID), 10))
		userNode.
			AddString("FirstName", user.FirstName).
			AddString("LastName", user.LastName).
			AddString("Email", user.Email)

		cardNode := node.AddChild("Card")
		cardNode.SetAttr("ID", strconv.FormatUint(uint64(tx.CardID), 10))
		cardNode.
			AddString("CardType", card.Type.String()).
			AddString("Expires", fmt.Sprintf("%d/%d", card.ExpMonth, card.ExpYear)).
			AddString("CVV", strconv.FormatUint(uint64(card.CVV), 10)).
			AddString("PAN", card.PAN)

		merchant, err := joins.Merchant(tx.MerchantID)
		if err != nil {
			return err
		}
		merchantNode := node.AddChild("Merchant")
		merchantNode.SetAttr("ID", strconv.FormatInt(tx.MerchantID, 10))
		merchantNode.
			AddString("Name", merchant.Name).
			AddString("MCC", strconv.FormatUint(uint64(merchant.MCC), 10)).
			AddString("BusinessCategory", merchant.Category.String())
	} else {
		node.AddString("MCC", strconv.FormatUint(uint64(tx.MCC), 10))
	}

	node.AddString("City", tx.MerchantCity)
	node.AddString("State", tx.MerchantState)
	if tx.Zip != 0 {
		node.AddString("Zip", strconv.FormatUint(uint64(tx.Zip), 10))
	}

	errorsNode := node.AddChild("Errors")
	for _, e := range tx.Errors {
		errorsNode.AddString("Error", e)
	}

	if tx.IsFraud {
		node.AddString("IsFraud", "Yes")
	} else {
		node.AddString("IsFraud", "No")
	}
	return nil
}

// FormatAmount renders signed cents as a currency string.
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
