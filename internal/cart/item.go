package cart

// LineItem is one row of the cart. (ID, Variant) is the merge key.
type LineItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Variant   string  `json:"variant"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

// Subtotal is UnitPrice * Quantity.
func (i LineItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// ProductInput describes a product handed to Store.Add. ID and Price are kept
// loosely typed so numeric ids and string prices from older clients are
// normalized instead of rejected.
type ProductInput struct {
	ID       any    `json:"id"`
	Name     string `json:"name"`
	Variant  string `json:"variant"`
	Price    any    `json:"price"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Snapshot is a point-in-time copy of the cart with its derived totals.
// PersistError is set when the mutation that produced it could not be written
// to storage; the in-memory cart is still authoritative.
type Snapshot struct {
	Items        []LineItem `json:"items"`
	Count        int        `json:"count"`
	Total        float64    `json:"total"`
	PersistError string     `json:"persistError,omitempty"`
}

// AddResult is returned by Store.Add. Trackable is false when the product had
// no usable id and a synthetic one was assigned; callers skip analytics then.
type AddResult struct {
	Snapshot  Snapshot `json:"cart"`
	Item      LineItem `json:"item"`
	Trackable bool     `json:"-"`
}

func countOf(items []LineItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func totalOf(items []LineItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

func snapshotOf(items []LineItem) Snapshot {
	copied := make([]LineItem, len(items))
	copy(copied, items)
	return Snapshot{
		Items: copied,
		Count: countOf(items),
		Total: totalOf(items),
	}
}
