package categories

import "github.com/cleared-dev/spendsight/internal/model"

// DefaultOtherColor is the color for "Other" and any category without a rule.
const DefaultOtherColor = "#9E9E9E"

// DefaultRules returns the built-in rule table. Order is priority:
//
//  1. Groceries  2. Dining  3. Transport  4. Entertainment  5. Shopping
//  6. Bills  7. Health  8. Travel  9. Cash
//
// Dining sits above Transport so "uber eats" is not read as a ride.
func DefaultRules() []model.CategoryRule {
	return []model.CategoryRule{
		{Category: "Groceries", Color: "#4CAF50", Keywords: []string{
			"tesco", "sainsbury", "asda", "aldi", "lidl", "waitrose", "morrisons",
			"whole foods", "co-op", "grocery", "groceries", "supermarket",
		}},
		{Category: "Dining", Color: "#FF9800", Keywords: []string{
			"uber eats", "deliveroo", "just eat", "mcdonald", "starbucks", "pret a manger",
			"costa", "nando", "restaurant", "cafe", "coffee", "pizza",
		}},
		{Category: "Transport", Color: "#2196F3", Keywords: []string{
			"uber", "lyft", "bolt", "transport for london", "tfl travel", "trainline", "railway", "taxi", "parking",
			"petrol", "fuel",
		}},
		{Category: "Entertainment", Color: "#9C27B0", Keywords: []string{
			"netflix", "spotify", "disney", "cinema", "odeon", "steam", "playstation",
			"xbox", "youtube",
		}},
		{Category: "Shopping", Color: "#E91E63", Keywords: []string{
			"amazon", "ebay", "argos", "ikea", "zara", "asos", "john lewis",
		}},
		{Category: "Bills", Color: "#FFC107", Keywords: []string{
			"council tax", "british gas", "octopus energy", "thames water", "electric",
			"broadband", "vodafone", "virgin media", "insurance",
		}},
		{Category: "Health", Color: "#F44336", Keywords: []string{
			"pharmacy", "boots", "puregym", "gym", "dentist", "doctor", "nhs",
		}},
		{Category: "Travel", Color: "#009688", Keywords: []string{
			"airbnb", "booking.com", "ryanair", "easyjet", "british airways", "hotel",
		}},
		{Category: "Cash", Color: "#607D8B", Keywords: []string{
			"atm", "cash withdrawal",
		}},
	}
}
