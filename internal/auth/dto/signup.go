package dto

type SignupInput struct {
	Email    string `json:"email" validate:"required,min=3,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}
