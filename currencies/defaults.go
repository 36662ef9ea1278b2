package currencies

// Defaults is the fallback list used when the supported currency fetch
// fails. Covers the settlement currencies the checkout offers by default
func Defaults() (defaults []Currency) {
	return []Currency{
		{
			Id:                  1,
			Code:                "BTC",
			Name:                "Bitcoin",
			Protocols:           []Protocol{},
			SupportsDeposits:    true,
			SupportsWithdrawals: true,
			QuantityPrecision:   8,
			PricePrecision:      8,
		},
		{
			Id:                  2,
			Code:                "ETH",
			Name:                "Ethereum",
			Protocols:           []Protocol{},
			SupportsDeposits:    true,
			SupportsWithdrawals: true,
			QuantityPrecision:   18,
			PricePrecision:      18,
		},
		{
			Id:                  3,
			Code:                "LTC",
			Name:                "Litecoin",
			Protocols:           []Protocol{},
			SupportsDeposits:    true,
			SupportsWithdrawals: true,
		},
	}
}
