package models

// Collection names as they exist in the document store.
const (
	ColItinerary   = "itinerary"
	ColExpenses    = "expenses"
	ColShopping    = "shopping"
	ColRestaurants = "restaurants"
	ColSightseeing = "sightseeing"
)

// Itinerary categories (closed set).
const (
	CategoryFood        = "food"
	CategorySightseeing = "sightseeing"
	CategoryShopping    = "shopping"
	CategoryTravel      = "travel"
	CategoryHotel       = "hotel"
	CategoryPrep        = "prep"
	CategoryOther       = "other"
)

// Shopping flavors.
const (
	FlavorSweet = "sweet"
	FlavorSalty = "salty"
	FlavorMisc  = "misc"
)

// ExpenseCategoryShopping marks expenses generated from the shopping list.
const ExpenseCategoryShopping = "shopping"

// ItineraryItem is one planned entry in the day-by-day schedule.
// Day 0 is trip preparation; Completed is only meaningful there.
type ItineraryItem struct {
	ItemID    string   `json:"itemid" bson:"_id"`
	Day       int      `json:"day" bson:"day"`
	Time      string   `json:"time,omitempty" bson:"time,omitempty"` // "HH:MM", sortable
	Location  string   `json:"location" bson:"location"`
	Category  string   `json:"category" bson:"category"`
	Notes     string   `json:"notes,omitempty" bson:"notes,omitempty"`
	ImageURL  string   `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	MapsURL   string   `json:"mapsUrl,omitempty" bson:"mapsUrl,omitempty"`
	Lat       *float64 `json:"lat,omitempty" bson:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty" bson:"lng,omitempty"`
	Completed bool     `json:"completed" bson:"completed"`
	Deleted   bool     `json:"deleted" bson:"deleted"`
}

func (i ItineraryItem) ID() string      { return i.ItemID }
func (i ItineraryItem) IsDeleted() bool { return i.Deleted }

// Expense is one line in the shared ledger. AmountYen is the line total,
// not a unit price.
type Expense struct {
	ExpenseID string  `json:"expenseid" bson:"_id"`
	Title     string  `json:"title" bson:"title"`
	AmountYen float64 `json:"amountYen" bson:"amountYen"`
	Category  string  `json:"category" bson:"category"`
	Payer     string  `json:"payer" bson:"payer"`
	Date      string  `json:"date" bson:"date"` // ISO "2006-01-02"
	Quantity  int     `json:"quantity" bson:"quantity"`
	Deleted   bool    `json:"deleted" bson:"deleted"`
}

func (e Expense) ID() string      { return e.ExpenseID }
func (e Expense) IsDeleted() bool { return e.Deleted }

// ShoppingItem is one souvenir/shopping entry. PriceYen is a unit price;
// marking an item bought generates a linked Expense worth PriceYen*Quantity.
type ShoppingItem struct {
	ShoppingID      string  `json:"shoppingid" bson:"_id"`
	Name            string  `json:"name" bson:"name"`
	Description     string  `json:"description,omitempty" bson:"description,omitempty"`
	PriceYen        float64 `json:"priceYen" bson:"priceYen"`
	Quantity        int     `json:"quantity" bson:"quantity"`
	Bought          bool    `json:"bought" bson:"bought"`
	ImageURL        string  `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Flavor          string  `json:"flavor,omitempty" bson:"flavor,omitempty"`
	LinkedExpenseID string  `json:"linkedExpenseId,omitempty" bson:"linkedExpenseId,omitempty"`
	Deleted         bool    `json:"deleted" bson:"deleted"`
}

func (s ShoppingItem) ID() string      { return s.ShoppingID }
func (s ShoppingItem) IsDeleted() bool { return s.Deleted }

// Restaurant is a place to eat, rated 1.0 to 5.0.
type Restaurant struct {
	RestaurantID string   `json:"restaurantid" bson:"_id"`
	Name         string   `json:"name" bson:"name"`
	Description  string   `json:"description,omitempty" bson:"description,omitempty"`
	Rating       float64  `json:"rating" bson:"rating"`
	ImageURL     string   `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	MapsURL      string   `json:"mapsUrl,omitempty" bson:"mapsUrl,omitempty"`
	Lat          *float64 `json:"lat,omitempty" bson:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty" bson:"lng,omitempty"`
	Tags         []string `json:"tags" bson:"tags"`
	Deleted      bool     `json:"deleted" bson:"deleted"`
}

func (r Restaurant) ID() string      { return r.RestaurantID }
func (r Restaurant) IsDeleted() bool { return r.Deleted }

// SightseeingSpot is a place to visit.
type SightseeingSpot struct {
	SpotID      string   `json:"spotid" bson:"_id"`
	Name        string   `json:"name" bson:"name"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	MapsURL     string   `json:"mapsUrl,omitempty" bson:"mapsUrl,omitempty"`
	Lat         *float64 `json:"lat,omitempty" bson:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty" bson:"lng,omitempty"`
	Deleted     bool     `json:"deleted" bson:"deleted"`
}

func (s SightseeingSpot) ID() string      { return s.SpotID }
func (s SightseeingSpot) IsDeleted() bool { return s.Deleted }

// Marker is what the map collaborator consumes: a geo-tagged point.
type Marker struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Kind string   `json:"kind"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

// Focus is a map focus request.
type Focus struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
