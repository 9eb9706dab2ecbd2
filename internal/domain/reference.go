package domain

// User is a reference record keyed by a 16-bit user id.
type User struct {
	FirstName string
	LastName  string
	Email     string
}

// CardType is the issuing network of a card. The numeric values are part
// of the store's binary layout.
type CardType uint8

const (
	CardAmex CardType = iota
	CardVisa
	CardMastercard
	CardUnknown
)

func (c CardType) String() string {
	switch c {
	case CardAmex:
		return "American Express"
	case CardVisa:
		return "Visa"
	case CardMastercard:
		return "Mastercard"
	default:
		return "Unknown"
	}
}

// Card is a reference record keyed by (user id, card id).
type Card struct {
	Type     CardType
	ExpMonth uint8
	ExpYear  uint8 // two-digit year, as issued
	CVV      uint32
	PAN      string
}

// MerchantCategory is a closed 13-value classification. The numeric values
// are part of the store's binary layout.
type MerchantCategory uint8

const (
	CategoryAgricultural MerchantCategory = iota
	CategoryContracted
	CategoryTravelAndEntertainment
	CategoryCarRental
	CategoryLodging
	CategoryTransportation
	CategoryUtility
	CategoryRetailOutlet
	CategoryClothingStore
	CategoryMiscStore
	CategoryBusiness
	CategoryProfessionalOrMembership
	CategoryGovernment
)

func (m MerchantCategory) String() string {
	switch m {
	case CategoryAgricultural:
		return "Agricultural"
	case CategoryContracted:
		return "Contracted"
	case CategoryTravelAndEntertainment:
		return "Travel and Entertainment"
	case CategoryCarRental:
		return "Car Rental"
	case CategoryLodging:
		return "Lodging"
	case CategoryTransportation:
		return "Transportation"
	case CategoryUtility:
		return "Utility"
	case CategoryRetailOutlet:
		return "Retail Outlet"
	case CategoryClothingStore:
		return "Clothing Store"
	case CategoryMiscStore:
		return "Miscellaneous Store"
	case CategoryBusiness:
		return "Business"
	case CategoryProfessionalOrMembership:
		return "Professional or Membership"
	case CategoryGovernment:
		return "Government"
	default:
		return "Unknown"
	}
}

// Location is one place a merchant operates from.
type Location struct {
	Online  bool
	Foreign bool
	Zip     uint32
	City    string
	State   string
}

// Merchant is a reference record keyed by a 64-bit merchant id.
type Merchant struct {
	Name      string
	MCC       uint32
	Category  MerchantCategory
	Locations []Location
}

// ZipRange is an inclusive range of zip codes.
type ZipRange struct {
	Start uint32
	End   uint32
}

// State is a reference record keyed by its two-letter abbreviation.
type State struct {
	Name      string
	Capital   string
	ZipRanges []ZipRange
}
