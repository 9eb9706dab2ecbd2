// Package generator produces synthetic reference data and transaction
// logs for development and load testing.
package generator

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/utopialabs/utopia/internal/domain"
)

// UserRecord pairs a user with their cards. Card ids are positional.
type UserRecord struct {
	User  domain.User
	Cards []domain.Card
}

// MerchantRecord pairs a merchant with its id.
type MerchantRecord struct {
	ID       int64
	Merchant domain.Merchant
}

// StateRecord pairs a state with its postal abbreviation.
type StateRecord struct {
	Abbrev string
	State  domain.State
}

// Dataset contains the generated reference records.
type Dataset struct {
	Users     []UserRecord
	Merchants []MerchantRecord
	States    []StateRecord
}

// Generator produces synthetic reference data and transaction logs.
type Generator struct {
	cfg   Config
	faker *gofakeit.Faker
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	cfg = cfg.normalized()
	return &Generator{
		cfg:   cfg,
		faker: gofakeit.New(cfg.Seed),
	}
}

// mccByCategory maps each business category to representative merchant
// category codes.
var mccByCategory = map[domain.MerchantCategory][]uint32{
	domain.CategoryAgricultural:             {763, 780},
	domain.CategoryContracted:               {1520, 1711, 1731},
	domain.CategoryTravelAndEntertainment:   {3000, 3256, 3501},
	domain.CategoryCarRental:                {3351, 3385, 3412},
	domain.CategoryLodging:                  {3504, 3640, 3710},
	domain.CategoryTransportation:           {4011, 4111, 4121},
	domain.CategoryUtility:                  {4812, 4814, 4900},
	domain.CategoryRetailOutlet:             {5200, 5261, 5310},
	domain.CategoryClothingStore:            {5611, 5621, 5651},
	domain.CategoryMiscStore:                {5812, 5912, 5942},
	domain.CategoryBusiness:                 {7311, 7372, 7399},
	domain.CategoryProfessionalOrMembership: {8011, 8021, 8062},
	domain.CategoryGovernment:               {9211, 9222, 9311},
}

// Country names for foreign locations. The log is comma-separated, so
// only comma-free names are usable.
var foreignCountries = []string{
	"Italy", "France", "Germany", "Spain", "Japan", "Mexico", "Canada",
	"Brazil", "Australia", "India", "Thailand", "Portugal",
}

var errorLabels = []string{
	"Technical Glitch",
	"Insufficient Balance",
	"Bad PIN",
	"Bad Card Number",
	"Bad CVV",
	"Bad Expiration",
	"Bad Zipcode",
}

// Generate builds the full reference dataset.
func (g *Generator) Generate() Dataset {
	ds := Dataset{
		Users:     make([]UserRecord, 0, g.cfg.NumUsers),
		Merchants: make([]MerchantRecord, 0, g.cfg.NumMerchants),
		States:    make([]StateRecord, 0, len(stateSeeds)),
	}

	for _, seed := range stateSeeds {
		ds.States = append(ds.States, StateRecord{Abbrev: seed.abbrev, State: seed.record()})
	}

	for i := 0; i < g.cfg.NumUsers; i++ {
		first := g.faker.FirstName()
		last := g.faker.LastName()
		user := domain.User{
			FirstName: first,
			LastName:  last,
			Email: fmt.Sprintf("%s.%s@%s",
				strings.ToLower(first), strings.ToLower(last), g.faker.DomainName()),
		}
		cards := make([]domain.Card, g.faker.Number(1, 4))
		for c := range cards {
			cards[c] = g.card()
		}
		ds.Users = append(ds.Users, UserRecord{User: user, Cards: cards})
	}

	seen := make(map[int64]bool, g.cfg.NumMerchants)
	for i := 0; i < g.cfg.NumMerchants; i++ {
		id := int64(g.faker.Number(100000, 999999999))
		for seen[id] {
			id = int64(g.faker.Number(100000, 999999999))
		}
		seen[id] = true
		ds.Merchants = append(ds.Merchants, MerchantRecord{ID: id, Merchant: g.merchant()})
	}

	return ds
}

func (g *Generator) card() domain.Card {
	cardType := domain.CardType(g.faker.Number(0, 2))
	var opts *gofakeit.CreditCardOptions
	switch cardType {
	case domain.CardAmex:
		opts = &gofakeit.CreditCardOptions{Types: []string{"amex"}}
	case domain.CardVisa:
		opts = &gofakeit.CreditCardOptions{Types: []string{"visa"}}
	default:
		opts = &gofakeit.CreditCardOptions{Types: []string{"mastercard"}}
	}
	return domain.Card{
		Type:     cardType,
		ExpMonth: uint8(g.faker.Number(1, 12)),
		ExpYear:  uint8(g.faker.Number(24, 32)),
		CVV:      uint32(g.faker.Number(100, 9999)),
		PAN:      g.faker.CreditCardNumber(opts),
	}
}

func (g *Generator) merchant() domain.Merchant {
	category := domain.MerchantCategory(g.faker.Number(0, int(domain.CategoryGovernment)))
	codes := mccByCategory[category]
	mcc := codes[g.faker.Number(0, len(codes)-1)]

	locations := make([]domain.Location, g.faker.Number(1, 4))
	for i := range locations {
		locations[i] = g.location()
	}

	return domain.Merchant{
		Name:      g.faker.Company(),
		MCC:       mcc,
		Category:  category,
		Locations: locations,
	}
}

func (g *Generator) location() domain.Location {
	roll := g.faker.Float64Range(0, 1)
	switch {
	case roll < 0.1:
		return domain.Location{Online: true}
	case roll < 0.15:
		return domain.Location{
			Foreign: true,
			City:    g.faker.City(),
			State:   foreignCountries[g.faker.Number(0, len(foreignCountries)-1)],
		}
	default:
		seed := stateSeeds[g.faker.Number(0, len(stateSeeds)-1)]
		return domain.Location{
			Zip:   uint32(g.faker.Number(int(seed.zipLo), int(seed.zipHi))),
			City:  g.faker.City(),
			State: seed.abbrev,
		}
	}
}

// transaction produces one synthetic log record drawn against the
// dataset's users and merchants.
func (g *Generator) transaction(ds Dataset) domain.Transaction {
	userID := g.faker.Number(0, len(ds.Users)-1)
	user := ds.Users[userID]
	cardID := g.faker.Number(0, len(user.Cards)-1)
	merchant := ds.Merchants[g.faker.Number(0, len(ds.Merchants)-1)]
	loc := merchant.Merchant.Locations[g.faker.Number(0, len(merchant.Merchant.Locations)-1)]

	start := time.Date(g.cfg.StartYear, time.January, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(g.cfg.EndYear, time.December, 31, 23, 59, 0, 0, time.Local)
	at := time.Unix(int64(g.faker.Number(int(start.Unix()), int(end.Unix()))), 0).In(time.Local)
	at = at.Truncate(time.Minute)

	amount := int64(g.faker.Number(100, 50000))
	if g.faker.Float64Range(0, 1) < 0.03 {
		amount = -amount
	}

	txType := domain.TypeSwipe
	switch {
	case loc.Online:
		txType = domain.TypeOnline
	case g.faker.Float64Range(0, 1) < 0.6:
		txType = domain.TypeChip
	}

	var txErrors []string
	if g.faker.Float64Range(0, 1) < g.cfg.ErrorChance {
		txErrors = append(txErrors, errorLabels[g.faker.Number(0, len(errorLabels)-1)])
		if g.faker.Float64Range(0, 1) < 0.2 {
			txErrors = append(txErrors, errorLabels[g.faker.Number(0, len(errorLabels)-1)])
		}
	}

	city := loc.City
	if loc.Online {
		city = "ONLINE"
	}

	return domain.Transaction{
		UserID:        uint16(userID),
		CardID:        uint8(cardID),
		Time:          at,
		Amount:        amount,
		Type:          txType,
		MerchantID:    merchant.ID,
		MerchantCity:  city,
		MerchantState: loc.State,
		Zip:           loc.Zip,
		MCC:           merchant.Merchant.MCC,
		Errors:        txErrors,
		IsFraud:       g.faker.Float64Range(0, 1) < g.cfg.FraudChance,
	}
}
