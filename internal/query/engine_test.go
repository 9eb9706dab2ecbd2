package query

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utopialabs/utopia/internal/domain"
	"github.com/utopialabs/utopia/internal/report"
	"github.com/utopialabs/utopia/internal/store"
)

const testLogHeader = "User,Card,Year,Month,Day,Time,Amount,Use Chip,Merchant Name,Merchant City,Merchant State,Zip,MCC,Errors?,Is Fraud?"

var testLogLines = []string{
	"12,1,2020,05,14,20:31,$45.23,Swipe Transaction,998877,Columbus,OH,43215,5812,,No",
	"12,1,2020,05,15,09:12,$120.00,Chip Transaction,998877,Cincinnati,OH,45202,5812,,No",
	"12,1,2020,06,01,13:45,$7.50,Chip Transaction,998877,Albany,NY,12207,5812,,No",
	`12,1,2020,06,02,10:00,$99.99,Online Transaction,998877,ONLINE,,,5812,"Bad PIN",No`,
	"12,1,2020,06,03,11:30,$500.00,Swipe Transaction,998877,Rome,Italy,,5812,,Yes",
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "store"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	putUser(t, st, 12, domain.User{FirstName: "Hazel", LastName: "Robinson", Email: "hazel@example.com"})
	putCard(t, st, 12, 1, domain.Card{Type: domain.CardVisa, ExpMonth: 3, ExpYear: 27, CVV: 623, PAN: "4344676511950444"})
	putMerchant(t, st, 998877, domain.Merchant{
		Name:     "La Cascada",
		MCC:      5812,
		Category: domain.CategoryMiscStore,
		Locations: []domain.Location{
			{Zip: 43215, City: "Columbus", State: "OH"},
			{Zip: 45202, City: "Cincinnati", State: "OH"},
			{Online: true},
		},
	})

	logPath := filepath.Join(dir, "transactions.csv")
	content := testLogHeader + "\n" + strings.Join(testLogLines, "\n") + "\n"
	require.NoError(t, os.WriteFile(logPath, []byte(content), 0o644))

	return NewEngine(st, logPath, slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func putUser(t *testing.T, st *store.Store, id uint16, u domain.User) {
	t.Helper()
	buf, err := store.EncodeUser(u)
	require.NoError(t, err)
	require.NoError(t, st.Put(store.TableUsers, store.UserKey(id), buf))
}

func putCard(t *testing.T, st *store.Store, userID uint16, cardID uint8, c domain.Card) {
	t.Helper()
	buf, err := store.EncodeCard(c)
	require.NoError(t, err)
	require.NoError(t, st.Put(store.TableCards, store.CardKey(userID, cardID), buf))
}

func putMerchant(t *testing.T, st *store.Store, id int64, m domain.Merchant) {
	t.Helper()
	buf, err := store.EncodeMerchant(m)
	require.NoError(t, err)
	require.NoError(t, st.Put(store.TableMerchants, store.MerchantKey(id), buf))
}

func findChild(t *testing.T, n *report.Node, name string) *report.Node {
	t.Helper()
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("node %s has no child %s", n.Name, name)
	return nil
}

func childText(t *testing.T, n *report.Node, name string) string {
	t.Helper()
	return findChild(t, n, name).Text
}

func attrValue(n *report.Node, key string) string {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

func TestRunUngrouped(t *testing.T) {
	engine := newTestEngine(t)

	root, err := engine.Run(Options{})
	require.NoError(t, err)

	list := findChild(t, root, "Transactions")
	assert.Equal(t, "none", attrValue(list, "GroupedBy"))
	require.Len(t, list.Children, 1)

	result := list.Children[0]
	assert.Empty(t, result.Attrs)
	require.Len(t, result.Children, 5)

	// Descending by amount is the default ordering.
	amounts := make([]string, 0, 5)
	for _, tx := range result.Children {
		amounts = append(amounts, childText(t, tx, "Amount"))
	}
	assert.Equal(t, []string{"$500.00", "$120.00", "$99.99", "$45.23", "$7.50"}, amounts)
}

func TestRunGroupedByStateSkipsNonStates(t *testing.T) {
	engine := newTestEngine(t)

	root, err := engine.Run(Options{GroupBy: GroupState, Count: 1})
	require.NoError(t, err)

	list := findChild(t, root, "Transactions")
	assert.Equal(t, "state", attrValue(list, "GroupedBy"))

	// The online and foreign records have no two-letter state.
	require.Len(t, list.Children, 2)
	assert.Equal(t, "NY", attrValue(list.Children[0], "State"))
	assert.Equal(t, "OH", attrValue(list.Children[1], "State"))

	oh := list.Children[1]
	require.Len(t, oh.Children, 1)
	assert.Equal(t, "$120.00", childText(t, oh.Children[0], "Amount"))
}

func TestRunGroupedByCity(t *testing.T) {
	engine := newTestEngine(t)

	root, err := engine.Run(Options{GroupBy: GroupCity})
	require.NoError(t, err)

	list := findChild(t, root, "Transactions")
	var cities []string
	for _, result := range list.Children {
		cities = append(cities, attrValue(result, "City"))
	}
	assert.Equal(t, []string{"Albany", "Cincinnati", "Columbus", "ONLINE", "Rome"}, cities)
}

func TestRunGroupedByMonth(t *testing.T) {
	engine := newTestEngine(t)

	root, err := engine.Run(Options{GroupBy: GroupMonth})
	require.NoError(t, err)

	list := findChild(t, root, "Transactions")
	require.Len(t, list.Children, 2)
	assert.Equal(t, "June", attrValue(list.Children[0], "Month"))
	assert.Equal(t, "May", attrValue(list.Children[1], "Month"))
}

func TestRunStrictExcludesFraudAndErrors(t *testing.T) {
	engine := newTestEngine(t)

	root, err := engine.Run(Options{Strict: true})
	require.NoError(t, err)

	result := findChild(t, root, "Transactions").Children[0]
	require.Len(t, result.Children, 3)
	for _, tx := range result.Children {
		assert.Equal(t, "No", childText(t, tx, "IsFraud"))
		assert.Empty(t, findChild(t, tx, "Errors").Children)
	}
}

func TestRunSelectorFilter(t *testing.T) {
	engine := newTestEngine(t)

	root, err := engine.Run(Options{
		Selectors: []Selector{
			{Field: "amount", Type: "greaterThan", Values: []string{"10000"}},
			{Field: "isFraud", Type: "isEqual", Values: []string{"No"}},
		},
	})
	require.NoError(t, err)

	result := findChild(t, root, "Transactions").Children[0]
	require.Len(t, result.Children, 1)
	assert.Equal(t, "$120.00", childText(t, result.Children[0], "Amount"))
}

func TestRunSelectorValidationError(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Run(Options{
		Selectors: []Selector{
			{Field: "amount", Type: "inRange", Values: []string{"1", "2", "3"}},
		},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Selector must be matched against pairs of values!", verr.Reason)
}

func TestRunPropertyPrunesGroups(t *testing.T) {
	engine := newTestEngine(t)

	// Only the OH group has a member above $100.
	root, err := engine.Run(Options{
		GroupBy: GroupState,
		Properties: []Property{
			{Field: "amount", Condition: PropertyOneOrMore, Type: "greaterThan", Values: []string{"10000"}},
		},
	})
	require.NoError(t, err)

	list := findChild(t, root, "Transactions")
	require.Len(t, list.Children, 1)
	assert.Equal(t, "OH", attrValue(list.Children[0], "State"))
}

func TestRunStrictFiltersBeforeProperties(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "store"), false)
	require.NoError(t, err)
	defer st.Close()

	// One city, where the only record above $100 is fraudulent.
	logPath := filepath.Join(dir, "transactions.csv")
	content := testLogHeader + "\n" +
		"12,1,2020,06,01,09:00,$5.00,Swipe Transaction,998877,Columbus,OH,43215,5812,,No\n" +
		"12,1,2020,06,02,10:00,$500.00,Swipe Transaction,998877,Columbus,OH,43215,5812,,Yes\n"
	require.NoError(t, os.WriteFile(logPath, []byte(content), 0o644))

	engine := NewEngine(st, logPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	opts := Options{
		GroupBy: GroupCity,
		Properties: []Property{
			{Field: "amount", Condition: PropertyOneOrMore, Type: "greaterThan", Values: []string{"10000"}},
		},
	}

	// Without strict the fraudulent record keeps the group alive.
	root, err := engine.Run(opts)
	require.NoError(t, err)
	list := findChild(t, root, "Transactions")
	require.Len(t, list.Children, 1)

	// Strict removes it before grouping, so the group no longer has a
	// member satisfying the property and is dropped.
	opts.Strict = true
	root, err = engine.Run(opts)
	require.NoError(t, err)
	list = findChild(t, root, "Transactions")
	assert.Empty(t, list.Children)
}

func TestRunCountOnly(t *testing.T) {
	engine := newTestEngine(t)

	root, err := engine.Run(Options{GroupBy: GroupMonth, CountOnly: true})
	require.NoError(t, err)

	list := findChild(t, root, "TransactionCounts")
	assert.Equal(t, "month", attrValue(list, "GroupedBy"))
	require.Len(t, list.Children, 2)

	// Descending by group size.
	assert.Equal(t, "June", attrValue(list.Children[0], "Month"))
	assert.Equal(t, "3", childText(t, list.Children[0], "Count"))
	assert.Equal(t, "May", attrValue(list.Children[1], "Month"))
	assert.Equal(t, "2", childText(t, list.Children[1], "Count"))
}

func TestRunCountOnlyTruncatesGroups(t *testing.T) {
	engine := newTestEngine(t)

	root, err := engine.Run(Options{GroupBy: GroupMonth, CountOnly: true, Count: 1, Order: Ascending})
	require.NoError(t, err)

	list := findChild(t, root, "TransactionCounts")
	require.Len(t, list.Children, 1)
	assert.Equal(t, "May", attrValue(list.Children[0], "Month"))
}

func TestRunVerbose(t *testing.T) {
	engine := newTestEngine(t)

	root, err := engine.Run(Options{Verbose: true, Count: 1})
	require.NoError(t, err)

	tx := findChild(t, root, "Transactions").Children[0].Children[0]
	assert.Empty(t, attrValue(tx, "UserID"))

	user := findChild(t, tx, "User")
	assert.Equal(t, "12", attrValue(user, "ID"))
	assert.Equal(t, "Hazel", childText(t, user, "FirstName"))

	card := findChild(t, tx, "Card")
	assert.Equal(t, "Visa", childText(t, card, "CardType"))
	assert.Equal(t, "3/27", childText(t, card, "Expires"))

	merchant := findChild(t, tx, "Merchant")
	assert.Equal(t, "998877", attrValue(merchant, "ID"))
	assert.Equal(t, "La Cascada", childText(t, merchant, "Name"))
	assert.Equal(t, "Miscellaneous Store", childText(t, merchant, "BusinessCategory"))
}

func TestRunNonVerboseAttrs(t *testing.T) {
	engine := newTestEngine(t)

	root, err := engine.Run(Options{Count: 1})
	require.NoError(t, err)

	tx := findChild(t, root, "Transactions").Children[0].Children[0]
	assert.Equal(t, "12", attrValue(tx, "UserID"))
	assert.Equal(t, "1", attrValue(tx, "CardID"))
	assert.Equal(t, "998877", attrValue(tx, "MerchantID"))
	assert.Equal(t, "5812", childText(t, tx, "MCC"))
}

func TestRunMalformedLogAborts(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "store"), false)
	require.NoError(t, err)
	defer st.Close()

	logPath := filepath.Join(dir, "transactions.csv")
	content := testLogHeader + "\nnot,a,valid,line\n"
	require.NoError(t, os.WriteFile(logPath, []byte(content), 0o644))

	engine := NewEngine(st, logPath, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	_, err = engine.Run(Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$45.23", FormatAmount(4523))
	assert.Equal(t, "$0.09", FormatAmount(9))
	assert.Equal(t, "-$5.00", FormatAmount(-500))
	assert.Equal(t, "$1000.00", FormatAmount(100000))
}
