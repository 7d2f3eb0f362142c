package enums

// CartStatus tracks a cart through its lifecycle.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusAbandoned CartStatus = "abandoned"
	CartStatusConverted CartStatus = "converted"
)

var cartStatuses = []CartStatus{CartStatusActive, CartStatusAbandoned, CartStatusConverted}

func (c CartStatus) String() string { return string(c) }

// AcceptsMutations is true only for active carts.
func (c CartStatus) AcceptsMutations() bool { return c == CartStatusActive }

func (c CartStatus) IsValid() bool {
	_, err := ParseCartStatus(string(c))
	return err == nil
}

func ParseCartStatus(value string) (CartStatus, error) {
	return parse("cart status", cartStatuses, value)
}
