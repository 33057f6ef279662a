package dto

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type LoginResponse struct {
	Success bool      `json:"success"`
	User    LoginUser `json:"user"`
}
