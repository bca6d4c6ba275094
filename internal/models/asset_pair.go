package models

// AssetPair is the instrument metadata we need before touching an order:
// rounding precisions and whether the pair currently trades at all.
type AssetPair struct {
	Pair            string // "BTC_USDT"
	AmountPrecision int    // base currency decimals
	PricePrecision  int    // quote currency decimals
	Tradable        bool
}
