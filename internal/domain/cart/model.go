package cart

// Line is one product entry in a cart. LineID is the identity assigned by
// the cart service and stays empty until the line has been persisted
// remotely; until then the ProductID identifies the line.
type Line struct {
	LineID    string  `json:"line_id,omitempty"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	UnitPrice float64 `json:"unit_price,omitempty"`
	Quantity  int     `json:"quantity"`
	ImageRef  string  `json:"image_ref,omitempty"`
}

// Total returns the summed price of the given lines.
func Total(lines []Line) float64 {
	var total float64
	for _, l := range lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return total
}

// IndexOfProduct returns the position of the line holding productID, or -1.
func IndexOfProduct(lines []Line, productID string) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
