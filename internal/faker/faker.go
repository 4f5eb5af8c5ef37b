package faker

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/utafrali/cartrecords/internal/domain"
)

// Generator produces plausible cart test data: promo-code style product IDs,
// commerce-flavored product names, and small quantities and prices. It is safe
// for concurrent use.
type Generator struct{}

// New creates a generator.
func New() *Generator {
	return &Generator{}
}

var (
	adjectives = []string{
		"Rustic", "Sleek", "Ergonomic", "Incredible", "Durable",
		"Lightweight", "Practical", "Handcrafted", "Refined", "Gorgeous",
	}
	materials = []string{
		"Steel", "Wooden", "Cotton", "Granite", "Leather",
		"Bronze", "Plastic", "Concrete", "Rubber", "Linen",
	}
	products = []string{
		"Chair", "Lamp", "Keyboard", "Bottle", "Wallet",
		"Backpack", "Clock", "Mug", "Notebook", "Headphones",
	}
	promoWords = []string{
		"SAVE", "DEAL", "BONUS", "PROMO", "EXTRA", "SUPER", "MEGA", "FLASH",
	}
)

// UserID returns a nine-digit identifier in the style of a national ID number.
func (g *Generator) UserID() string {
	var sb strings.Builder
	for i := 0; i < 9; i++ {
		fmt.Fprintf(&sb, "%d", rand.Intn(10))
	}
	return sb.String()
}

// ProductID returns a promotion-code style identifier, e.g. "SAVE-42-X7K".
func (g *Generator) ProductID() string {
	const alphanum = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	suffix := make([]byte, 3)
	for i := range suffix {
		suffix[i] = alphanum[rand.Intn(len(alphanum))]
	}
	return fmt.Sprintf("%s-%d-%s", promoWords[rand.Intn(len(promoWords))], rand.Intn(90)+10, suffix)
}

// ProductName returns a three-word commerce product name.
func (g *Generator) ProductName() string {
	return adjectives[rand.Intn(len(adjectives))] + " " +
		materials[rand.Intn(len(materials))] + " " +
		products[rand.Intn(len(products))]
}

// Item returns a cart item with quantity 1..9 and a price between 10 and 1000,
// rounded to cents.
func (g *Generator) Item() domain.CartItem {
	price := 10 + rand.Float64()*990
	return domain.CartItem{
		ProductID:   g.ProductID(),
		ProductName: g.ProductName(),
		Quantity:    rand.Intn(9) + 1,
		Price:       float64(int(price*100)) / 100,
	}
}

// Cart returns a cart for a generated user with between 1 and 9 items.
func (g *Generator) Cart() *domain.Cart {
	cart := domain.NewCart(g.UserID())
	n := rand.Intn(9) + 1
	for i := 0; i < n; i++ {
		cart.Items = append(cart.Items, g.Item())
	}
	return cart
}
