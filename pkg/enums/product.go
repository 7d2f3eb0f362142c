package enums

// ProductStatus is the publication state owned by the catalog. Only active
// products can be added to a cart or ordered.
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

var productStatuses = []ProductStatus{ProductStatusDraft, ProductStatusActive, ProductStatusArchived}

func (p ProductStatus) String() string { return string(p) }

func (p ProductStatus) IsValid() bool {
	_, err := ParseProductStatus(string(p))
	return err == nil
}

func ParseProductStatus(value string) (ProductStatus, error) {
	return parse("product status", productStatuses, value)
}

// StockStatus is the availability flag kept alongside stock quantities.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

func (s StockStatus) String() string { return string(s) }

func (s StockStatus) IsValid() bool {
	return s == StockStatusInStock || s == StockStatusOutOfStock
}
