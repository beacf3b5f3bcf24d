package model

// PaymentConfirmation carries the provider details persisted on a
// successful pending -> completed transition. Field names follow the
// normalized vocabulary, not any single provider's.
type PaymentConfirmation struct {
	TransactionID     string
	ValidationID      string
	CardType          string
	CardBrand         string
	CardIssuer        string
	BankTransactionID string
}
