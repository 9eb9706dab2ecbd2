package generator

import "github.com/utopialabs/utopia/internal/domain"

type stateSeed struct {
	abbrev  string
	name    string
	capital string
	zipLo   uint32
	zipHi   uint32
}

// stateSeeds covers the fifty states plus DC with their primary ZIP
// prefix ranges.
var stateSeeds = []stateSeed{
	{"AL", "Alabama", "Montgomery", 35000, 36999},
	{"AK", "Alaska", "Juneau", 99500, 99999},
	{"AZ", "Arizona", "Phoenix", 85000, 86599},
	{"AR", "Arkansas", "Little Rock", 71600, 72999},
	{"CA", "California", "Sacramento", 90000, 96199},
	{"CO", "Colorado", "Denver", 80000, 81699},
	{"CT", "Connecticut", "Hartford", 6000, 6999},
	{"DE", "Delaware", "Dover", 19700, 19999},
	{"DC", "District of Columbia", "Washington", 20000, 20599},
	{"FL", "Florida", "Tallahassee", 32000, 34999},
	{"GA", "Georgia", "Atlanta", 30000, 31999},
	{"HI", "Hawaii", "Honolulu", 96700, 96899},
	{"ID", "Idaho", "Boise", 83200, 83899},
	{"IL", "Illinois", "Springfield", 60000, 62999},
	{"IN", "Indiana", "Indianapolis", 46000, 47999},
	{"IA", "Iowa", "Des Moines", 50000, 52899},
	{"KS", "Kansas", "Topeka", 66000, 67999},
	{"KY", "Kentucky", "Frankfort", 40000, 42799},
	{"LA", "Louisiana", "Baton Rouge", 70000, 71499},
	{"ME", "Maine", "Augusta", 3900, 4999},
	{"MD", "Maryland", "Annapolis", 20600, 21999},
	{"MA", "Massachusetts", "Boston", 1000, 2799},
	{"MI", "Michigan", "Lansing", 48000, 49799},
	{"MN", "Minnesota", "Saint Paul", 55000, 56799},
	{"MS", "Mississippi", "Jackson", 38600, 39799},
	{"MO", "Missouri", "Jefferson City", 63000, 65899},
	{"MT", "Montana", "Helena", 59000, 59999},
	{"NE", "Nebraska", "Lincoln", 68000, 69399},
	{"NV", "Nevada", "Carson City", 88900, 89899},
	{"NH", "New Hampshire", "Concord", 3000, 3899},
	{"NJ", "New Jersey", "Trenton", 7000, 8999},
	{"NM", "New Mexico", "Santa Fe", 87000, 88499},
	{"NY", "New York", "Albany", 10000, 14999},
	{"NC", "North Carolina", "Raleigh", 27000, 28999},
	{"ND", "North Dakota", "Bismarck", 58000, 58899},
	{"OH", "Ohio", "Columbus", 43000, 45999},
	{"OK", "Oklahoma", "Oklahoma City", 73000, 74999},
	{"OR", "Oregon", "Salem", 97000, 97999},
	{"PA", "Pennsylvania", "Harrisburg", 15000, 19699},
	{"RI", "Rhode Island", "Providence", 2800, 2999},
	{"SC", "South Carolina", "Columbia", 29000, 29999},
	{"SD", "South Dakota", "Pierre", 57000, 57799},
	{"TN", "Tennessee", "Nashville", 37000, 38599},
	{"TX", "Texas", "Austin", 75000, 79999},
	{"UT", "Utah", "Salt Lake City", 84000, 84799},
	{"VT", "Vermont", "Montpelier", 5000, 5999},
	{"VA", "Virginia", "Richmond", 22000, 24699},
	{"WA", "Washington", "Olympia", 98000, 99499},
	{"WV", "West Virginia", "Charleston", 24700, 26899},
	{"WI", "Wisconsin", "Madison", 53000, 54999},
	{"WY", "Wyoming", "Cheyenne", 82000, 83199},
}

func (s stateSeed) record() domain.State {
	return domain.State{
		Name:    s.name,
		Capital: s.capital,
		ZipRanges: []domain.ZipRange{
			{Start: s.zipLo, End: s.zipHi},
		},
	}
}
