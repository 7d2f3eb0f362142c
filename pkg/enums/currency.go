package enums

// Currency is an ISO 4217 code. Carts and orders are single-currency.
type Currency string

const CurrencyUSD Currency = "USD"

func (c Currency) String() string { return string(c) }

func (c Currency) IsValid() bool { return c == CurrencyUSD }

func ParseCurrency(value string) (Currency, error) {
	return parse("currency", []Currency{CurrencyUSD}, value)
}
