package entity

// RecoveryKey is the fixed name the last redirecting payment is stored under
const RecoveryKey = "lastBooking"

// RecoveryRecord re-identifies a booking after a payment-gateway redirect
type RecoveryRecord struct {
	ID                   int64  `json:"id" bson:"bookingId" gorm:"column:booking_id"`
	BookingReference     string `json:"bookingReference" bson:"bookingReference" gorm:"column:booking_reference"`
	PhoneNumber          string `json:"phoneNumber" bson:"phoneNumber" gorm:"column:phone_number"`
	Email                string `json:"email" bson:"email" gorm:"column:email"`
	TransactionReference string `json:"transactionReference" bson:"transactionReference" gorm:"column:transaction_reference"`
}
