// Package tokens converts amounts between tokens, US dollars and the
// user's local currency using token USD prices and local exchange rates.
package tokens

import (
	"sort"

	"github.com/shopspring/decimal"

	"wallet/currency"
)

type TokenBalance struct {
	Address  string              `json:"address"`
	Symbol   string              `json:"symbol"`
	USDPrice decimal.NullDecimal `json:"usdPrice"`
	Balance  decimal.Decimal     `json:"balance"`
}

// TokenBalances is keyed by token address.
type TokenBalances map[string]TokenBalance

// price returns the token's USD price, or false when it is unknown or zero.
func (b TokenBalances) price(address string) (decimal.Decimal, bool) {
	info, ok := b[address]
	if !ok || !info.USDPrice.Valid || info.USDPrice.Decimal.IsZero() {
		return decimal.Zero, false
	}
	return info.USDPrice.Decimal, true
}

// Converter holds the price data conversions read from. Every conversion
// reports false instead of an amount when a needed price or rate is
// missing or zero.
type Converter struct {
	Tokens             TokenBalances                         `json:"tokens"`
	LocalExchangeRates map[currency.Currency]decimal.Decimal `json:"localExchangeRates"`
}

func (c Converter) TokenInfo(address string) (TokenBalance, bool) {
	info, ok := c.Tokens[address]
	return info, ok
}

// TokenInfoBySymbol returns the first token with symbol, by address order.
func (c Converter) TokenInfoBySymbol(symbol string) (TokenBalance, bool) {
	addresses := make([]string, 0, len(c.Tokens))
	for address := range c.Tokens {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)
	for _, address := range addresses {
		if info := c.Tokens[address]; info.Symbol == symbol {
			return info, true
		}
	}
	return TokenBalance{}, false
}

// usdRate is the local currency value of one US dollar.
func (c Converter) usdRate() (decimal.Decimal, bool) {
	rate, ok := c.LocalExchangeRates[currency.Dollar]
	if !ok || rate.IsZero() {
		return decimal.Zero, false
	}
	return rate, true
}

func (c Converter) LocalToTokenAmount(localAmount decimal.Decimal, tokenAddress string) (decimal.Decimal, bool) {
	price, ok := c.Tokens.price(tokenAddress)
	if !ok {
		return decimal.Zero, false
	}
	rate, ok := c.usdRate()
	if !ok {
		return decimal.Zero, false
	}
	return localAmount.Div(rate).Div(price), true
}

func (c Converter) TokenToLocalAmount(tokenAmount decimal.Decimal, tokenAddress string) (decimal.Decimal, bool) {
	price, ok := c.Tokens.price(tokenAddress)
	if !ok {
		return decimal.Zero, false
	}
	rate, ok := c.usdRate()
	if !ok {
		return decimal.Zero, false
	}
	return tokenAmount.Mul(price).Mul(rate), true
}

func (c Converter) AmountAsUSD(amount decimal.Decimal, tokenAddress string) (decimal.Decimal, bool) {
	price, ok := c.Tokens.price(tokenAddress)
	if !ok {
		return decimal.Zero, false
	}
	return amount.Mul(price), true
}

// ConvertBetweenTokens values amount of tokenAddress in newTokenAddress
// through their USD prices.
func ConvertBetweenTokens(balances TokenBalances, amount decimal.Decimal, tokenAddress, newTokenAddress string) (decimal.Decimal, bool) {
	price, ok := balances.price(tokenAddress)
	if !ok {
		return decimal.Zero, false
	}
	newPrice, ok := balances.price(newTokenAddress)
	if !ok {
		return decimal.Zero, false
	}
	return amount.Mul(price).Div(newPrice), true
}
