// Package constants holds the static vocabularies used across the
// marketplace: cities, categories, conditions and exchange types.
package constants

// IndianCities is the list of cities a listing can be located in.
var IndianCities = []string{
	"Agra", "Ahmedabad", "Allahabad", "Amritsar", "Aurangabad",
	"Bangalore", "Bhopal", "Bhubaneswar", "Chandigarh", "Chennai",
	"Coimbatore", "Dehradun", "Delhi", "Dhanbad", "Faridabad",
	"Ghaziabad", "Guwahati", "Gwalior", "Howrah", "Hubli",
	"Hyderabad", "Indore", "Jabalpur", "Jaipur", "Jodhpur",
	"Kanpur", "Kochi", "Kolkata", "Lucknow", "Ludhiana",
	"Meerut", "Mumbai", "Mysore", "Nagpur", "Nashik",
	"Noida", "Gurgaon", "Patna", "Pune", "Raipur",
	"Rajkot", "Ranchi", "Srinagar", "Surat", "Thane",
	"Thiruvananthapuram", "Tiruchirappalli", "Vadodara", "Varanasi", "Visakhapatnam",
}

// Categories an item can be listed under.
var Categories = []string{
	"Electronics",
	"Vehicles",
	"Fashion",
	"Home & Garden",
	"Sports",
	"Books",
	"Gaming",
	"Collectibles",
	"Other",
}

// Conditions an item can be in.
var Conditions = []string{
	"New",
	"Like New",
	"Good",
	"Fair",
	"Poor",
}

// Exchange types: what the owner is willing to do with the item.
const (
	ExchangeTypeSellOnly       = "sell_only"
	ExchangeTypeOpenToExchange = "open_to_exchange"
	ExchangeTypeExchangeOnly   = "exchange_only"
)

// ExchangeTypes lists all valid exchange type values.
var ExchangeTypes = []string{
	ExchangeTypeSellOnly,
	ExchangeTypeOpenToExchange,
	ExchangeTypeExchangeOnly,
}

// MaxItemImages caps the number of images per listing.
const MaxItemImages = 5

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// IsValidCity reports whether the city is in the supported list.
func IsValidCity(city string) bool { return contains(IndianCities, city) }

// IsValidCategory reports whether the category is known.
func IsValidCategory(category string) bool { return contains(Categories, category) }

// IsValidCondition reports whether the condition is known.
func IsValidCondition(condition string) bool { return contains(Conditions, condition) }

// IsValidExchangeType reports whether the exchange type is known.
func IsValidExchangeType(t string) bool { return contains(ExchangeTypes, t) }
