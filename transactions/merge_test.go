package transactions_test

import (
	"testing"

	"anarchy.ttfm/payin/transactions"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func Test_Merge(t *testing.T) {
	options := []transactions.CurrencyOption{
		{Code: "BTC", Protocols: []string{"BTC"}},
		{Code: "ETH", Protocols: []string{"ERC20"}},
	}

	t.Run("PreservesOptionsWhenUpdateOmitsThem", func(t *testing.T) {
		assertions := assert.New(t)

		previous := transactions.Summary{
			Uuid:            uuid.New(),
			QuoteStatus:     transactions.QuotePending,
			CurrencyOptions: options,
		}
		update := transactions.Summary{
			Uuid:                 previous.Uuid,
			QuoteStatus:          transactions.QuotePending,
			AcceptanceExpiryDate: 1_700_000_000_000,
			PaidCurrency:         &transactions.Amount{Currency: "BTC", Amount: 0.5},
		}

		merged := transactions.Merge(previous, update)
		assertions.Equal(options, merged.CurrencyOptions, "previous options must survive the merge")
		assertions.Equal(update.AcceptanceExpiryDate, merged.AcceptanceExpiryDate, "update fields must win")
		assertions.Equal(update.PaidCurrency, merged.PaidCurrency, "update fields must win")
	})

	t.Run("UpdateOptionsWin", func(t *testing.T) {
		assertions := assert.New(t)

		previous := transactions.Summary{CurrencyOptions: options}
		update := transactions.Summary{
			CurrencyOptions: []transactions.CurrencyOption{{Code: "LTC", Protocols: []string{"LTC"}}},
		}

		merged := transactions.Merge(previous, update)
		assertions.Equal(update.CurrencyOptions, merged.CurrencyOptions, "options present in the update must win")
	})
}

func Test_Summary_Validate(t *testing.T) {
	valid := transactions.Summary{
		Uuid:        uuid.New(),
		Reference:   "REF-123456",
		Status:      transactions.StatusPending,
		QuoteStatus: transactions.QuotePending,
	}

	t.Run("Valid", func(t *testing.T) {
		assertions := assert.New(t)

		summary := valid
		assertions.Nil(summary.Validate(), "summary should be valid")
	})
	t.Run("MissingUuid", func(t *testing.T) {
		assertions := assert.New(t)

		summary := valid
		summary.Uuid = uuid.Nil
		assertions.ErrorIs(summary.Validate(), transactions.ErrMissingUuid)
	})
	t.Run("MissingReference", func(t *testing.T) {
		assertions := assert.New(t)

		summary := valid
		summary.Reference = ""
		assertions.ErrorIs(summary.Validate(), transactions.ErrMissingReference)
	})
	t.Run("UnknownStatus", func(t *testing.T) {
		assertions := assert.New(t)

		summary := valid
		summary.Status = "SETTLED"
		assertions.ErrorIs(summary.Validate(), transactions.ErrInvalidStatus)
	})
	t.Run("UnknownQuoteStatus", func(t *testing.T) {
		assertions := assert.New(t)

		summary := valid
		summary.QuoteStatus = "QUOTED"
		assertions.ErrorIs(summary.Validate(), transactions.ErrInvalidQuoteStatus)
	})
}
