package cart

// Item is one line in a buyer's cart. Name, brand and price are copied from
// the catalog when the item is added so the cart is already a snapshot.
type Item struct {
	ProductID uint    `json:"id"`
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image"`
}

// Snapshot is the cart state handed to checkout: the line items and the
// total derived from them.
type Snapshot struct {
	Items []Item
	Total float64
}

func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}

func total(items []Item) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}
