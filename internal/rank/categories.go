package rank

// Category carries the presentation metadata attached to each amenity.
type Category struct {
	Key   string
	Label string
	Icon  string
	Color string
}

var (
	amenityCategories = map[string]Category{
		"hospital":         {"hospital", "Hospital", "local_hospital", "red"},
		"clinic":           {"hospital", "Hospital", "local_hospital", "red"},
		"doctors":          {"hospital", "Hospital", "local_hospital", "red"},
		"pharmacy":         {"pharmacy", "Pharmacy", "local_pharmacy", "green"},
		"school":           {"school", "School", "school", "blue"},
		"college":          {"school", "School", "school", "blue"},
		"university":       {"school", "School", "school", "blue"},
		"restaurant":       {"restaurant", "Restaurant", "restaurant", "orange"},
		"fast_food":        {"restaurant", "Restaurant", "restaurant", "orange"},
		"cafe":             {"cafe", "Cafe", "local_cafe", "brown"},
		"bank":             {"bank", "Bank", "account_balance", "indigo"},
		"atm":              {"atm", "ATM", "local_atm", "indigo"},
		"fuel":             {"fuel", "Fuel Station", "local_gas_station", "gray"},
		"police":           {"police", "Police Station", "local_police", "navy"},
		"post_office":      {"post_office", "Post Office", "local_post_office", "crimson"},
		"cinema":           {"cinema", "Cinema", "local_movies", "purple"},
		"place_of_worship": {"worship", "Place of Worship", "temple_buddhist", "gold"},
		"bus_station":      {"bus_station", "Bus Station", "directions_bus", "teal"},
	}

	shopCategories = map[string]Category{
		"supermarket":      {"supermarket", "Supermarket", "local_grocery_store", "teal"},
		"convenience":      {"supermarket", "Supermarket", "local_grocery_store", "teal"},
		"grocery":          {"supermarket", "Supermarket", "local_grocery_store", "teal"},
		"mall":             {"mall", "Shopping Mall", "local_mall", "pink"},
		"department_store": {"mall", "Shopping Mall", "local_mall", "pink"},
		"bakery":           {"bakery", "Bakery", "bakery_dining", "brown"},
	}

	leisureCategories = map[string]Category{
		"park":           {"park", "Park", "park", "green"},
		"playground":     {"park", "Park", "park", "green"},
		"garden":         {"park", "Park", "park", "green"},
		"fitness_centre": {"gym", "Gym", "fitness_center", "maroon"},
		"sports_centre":  {"gym", "Gym", "fitness_center", "maroon"},
	}
)

// Classify maps a raw point's tags onto a category. Precedence is fixed:
// an explicit amenity tag wins over a shop tag, which wins over
// leisure/railway/highway tags. Points matching no rule are dropped.
func Classify(tags map[string]string) (Category, bool) {
	if v, ok := tags["amenity"]; ok {
		if cat, ok := amenityCategories[v]; ok {
			return cat, true
		}
	}
	if v, ok := tags["shop"]; ok {
		if cat, ok := shopCategories[v]; ok {
			return cat, true
		}
	}
	if v, ok := tags["leisure"]; ok {
		if cat, ok := leisureCategories[v]; ok {
			return cat, true
		}
	}
	if tags["railway"] == "station" {
		return Category{"train_station", "Railway Station", "train", "slate"}, true
	}
	if tags["highway"] == "bus_stop" || tags["public_transport"] == "platform" {
		return Category{"bus_stop", "Bus Stop", "directions_bus", "teal"}, true
	}
	return Category{}, false
}
