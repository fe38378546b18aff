package entity

// OTPStatus is the state of a phone verification challenge as reported by the OTP provider.
// pending -> approved | rejected | expired; failed means the code could not be sent.
type OTPStatus string

const (
	OTPPending  OTPStatus = "pending"
	OTPFailed   OTPStatus = "failed"
	OTPApproved OTPStatus = "approved"
	OTPRejected OTPStatus = "rejected"
	OTPExpired  OTPStatus = "expired"
)
