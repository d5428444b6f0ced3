package entity

// Payment Methods
const (
	MethodStripe       = "STRIPE"
	MethodBankCard     = "BANK_CARD"
	MethodMobileMoney  = "MOBILE_MONEY"
	MethodBankTransfer = "BANK_TRANSFER"
	MethodCash         = "CASH"
)

// Transaction Status
const (
	TxSuccess   = "SUCCESS"
	TxPending   = "PENDING"
	TxFailed    = "FAILED"
	TxRefunded  = "REFUNDED"
	TxCancelled = "CANCELLED"

	// TxError only appears on initiation replies
	TxError = "ERROR"
)

// IsCardMethod reports whether method is card-style and needs a contact email
func IsCardMethod(method string) bool {
	return method == MethodStripe || method == MethodBankCard
}

// IsKnownMethod reports whether method is one the gateway accepts
func IsKnownMethod(method string) bool {
	switch method {
	case MethodStripe, MethodBankCard, MethodMobileMoney, MethodBankTransfer, MethodCash:
		return true
	}
	return false
}

// PaymentIntent is the body of payments/initiate
type PaymentIntent struct {
	BookingID     int64   `json:"bookingId"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	Currency      string  `json:"currency"`
	Description   string  `json:"description"`
	Email         string  `json:"email,omitempty"`
	PhoneNumber   string  `json:"phoneNumber,omitempty"`
	CustomerName  string  `json:"customerName"`
}

// PaymentResponse is the gateway's answer to an intent
type PaymentResponse struct {
	Status               string  `json:"status"`
	Message              string  `json:"message,omitempty"`
	RequiresRedirect     bool    `json:"requiresRedirect"`
	RedirectURL          string  `json:"redirectUrl,omitempty"`
	TransactionReference string  `json:"transactionReference,omitempty"`
	Instructions         string  `json:"instructions,omitempty"`
	Amount               float64 `json:"amount,omitempty"`
	Currency             string  `json:"currency,omitempty"`
}

// PaymentTransaction is the remote payment record. Observed only.
type PaymentTransaction struct {
	TransactionReference string  `json:"transactionReference"`
	BookingID            int64   `json:"bookingId,omitempty"`
	Status               string  `json:"status"`
	Message              string  `json:"message,omitempty"`
	Amount               float64 `json:"amount"`
	Currency             string  `json:"currency"`
	PaymentMethod        string  `json:"paymentMethod"`
	RequiresRedirect     bool    `json:"requiresRedirect,omitempty"`
	RedirectURL          string  `json:"redirectUrl,omitempty"`
	Instructions         string  `json:"instructions,omitempty"`
	FailureReason        string  `json:"failureReason,omitempty"`
	CreatedAt            string  `json:"createdAt,omitempty"`
	UpdatedAt            string  `json:"updatedAt,omitempty"`
}
