package domain

// Selection is the product choice of a draft row: either Unselected or
// Selected. The unexported method closes the set.
type Selection interface {
	selection()
}

type Unselected struct{}

type Selected struct {
	ProductRef string // stable product id, empty when chosen by name only
	Name       string
}

func (Unselected) selection() {}
func (Selected) selection()   {}

// IdentityKey decides whether two rows refer to the same product.
func (s Selected) IdentityKey() string {
	if s.ProductRef != "" {
		return s.ProductRef
	}
	return s.Name
}

type LineItem struct {
	LocalID   string
	Selection Selection
	Quantity  int
}

func (li LineItem) IsSelected() bool {
	_, ok := li.Selection.(Selected)
	return ok
}

type ConsolidatedItem struct {
	LocalID    string `json:"item_id"`
	ProductRef string `json:"product_id,omitempty"`
	Name       string `json:"item_name"`
	Quantity   int    `json:"item_quantity"`
}

func (c ConsolidatedItem) IdentityKey() string {
	return Selected{ProductRef: c.ProductRef, Name: c.Name}.IdentityKey()
}
