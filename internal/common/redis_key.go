package common

// Cache prefixes. A redis cache stores its entries under prefix:key.
const (
	CachePrefixSetting = "setting"
	CachePrefixPrize   = "prize"
)
