package domain

type CartState string

const (
	CartStateBuilding  CartState = "building"
	CartStateFinalized CartState = "finalized"
)

// LineItem is one requested purchase within a cart. Seq is assigned by the
// cart and is unique within it; two lines for the same item are independent.
type LineItem struct {
	Seq      int
	ItemName string
	Quantity int
}

// Cart accumulates validated line items for one checkout session. It is not
// safe for concurrent use; one session owns one cart.
type Cart struct {
	ID string

	state   CartState
	nextSeq int
	lines   []LineItem
}

func NewCart(id string, firstSeq int) *Cart {
	return &Cart{
		ID:      id,
		state:   CartStateBuilding,
		nextSeq: firstSeq,
	}
}

func (c *Cart) State() CartState { return c.state }

func (c *Cart) Len() int { return len(c.lines) }

// Append records an already-validated line and assigns the next sequence id.
// The sequence counter only advances on success.
func (c *Cart) Append(itemName string, quantity int) (LineItem, error) {
	if c.state != CartStateBuilding {
		return LineItem{}, ErrCartFinalized
	}
	if quantity <= 0 {
		return LineItem{}, ErrInvalidQuantity
	}

	line := LineItem{Seq: c.nextSeq, ItemName: itemName, Quantity: quantity}
	c.lines = append(c.lines, line)
	c.nextSeq++
	return line, nil
}

// Lines returns a copy of the accumulated lines in insertion order.
func (c *Cart) Lines() []LineItem {
	out := make([]LineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

// Finalize transitions the cart from Building to Finalized and hands back its
// lines for checkout. Further Append or Finalize calls are rejected.
func (c *Cart) Finalize() ([]LineItem, error) {
	if c.state != CartStateBuilding {
		return nil, ErrCartFinalized
	}
	c.state = CartStateFinalized
	return c.Lines(), nil
}
