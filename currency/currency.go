package currency

import (
	"encoding/json"
	"fmt"
)

// Currency identifies one of the stable or native wallet currencies.
type Currency string

const (
	Dollar Currency = "cUSD"
	Euro   Currency = "cEUR"
	Celo   Currency = "cGLD"
)

var all = []Currency{Dollar, Euro, Celo}

// All returns every known currency in display order.
func All() []Currency {
	return append([]Currency(nil), all...)
}

func (c Currency) Valid() bool {
	for _, known := range all {
		if c == known {
			return true
		}
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}

// Parse accepts the currency code ("cUSD") or its name ("Dollar").
func Parse(s string) (Currency, error) {
	switch s {
	case string(Dollar), "Dollar":
		return Dollar, nil
	case string(Euro), "Euro":
		return Euro, nil
	case string(Celo), "Celo":
		return Celo, nil
	}
	return "", fmt.Errorf("unknown currency %q", s)
}

func (c *Currency) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
