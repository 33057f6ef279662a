package dto

type VerifyInput struct {
	Email string `json:"email" validate:"required"`
	Otp   string `json:"otp" validate:"required,min=4,max=10"`
}

type ResendOtpInput struct {
	Email string `json:"email" validate:"required"`
}
