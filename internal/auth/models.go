package auth

import (
	"github.com/google/uuid"
)

// LoginRequest — запрос на вход по email
type LoginRequest struct {
	Email string `json:"email"`
}

// LoginResponse — ответ на успешный вход
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	UserID      uuid.UUID `json:"user_id"`
}

// ErrorResponse — формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
