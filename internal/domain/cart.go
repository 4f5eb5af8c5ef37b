package domain

import "time"

// Cart is a per-user collection of product line entries. The ID is assigned by
// the store on creation; UserID is a lookup key the store does not force to be
// unique across carts.
type Cart struct {
	ID        string     `json:"id" bson:"_id,omitempty"`
	UserID    string     `json:"userId" bson:"user_id"`
	Items     []CartItem `json:"items" bson:"items"`
	CreatedAt time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updated_at"`
}

// CartItem is a single product line entry within a cart.
type CartItem struct {
	ProductID   string  `json:"productId" bson:"product_id"`
	ProductName string  `json:"productName" bson:"product_name"`
	Quantity    int     `json:"quantity" bson:"quantity"`
	Price       float64 `json:"price" bson:"price"`
}

// NewCart creates an empty cart for the given user. The ID is left blank for
// the store to assign.
func NewCart(userID string) *Cart {
	return &Cart{
		UserID: userID,
		Items:  []CartItem{},
	}
}

// FindItemIndex returns the index of the item with the given product ID, or -1
// if no such item exists.
func (c *Cart) FindItemIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// RemoveItems deletes every item with the given product ID, preserving the
// relative order of the remaining items. It returns the number of items removed.
func (c *Cart) RemoveItems(productID string) int {
	kept := c.Items[:0]
	removed := 0
	for _, item := range c.Items {
		if item.ProductID == productID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept
	return removed
}

// TotalAmount calculates the total price of all items in the cart.
func (c *Cart) TotalAmount() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// ItemCount returns the total quantity across all items in the cart.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Clone returns a deep copy of the cart. Stores hand out clones so callers
// never share item slices with persisted records.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Items = make([]CartItem, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}
