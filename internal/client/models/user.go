package models

import "github.com/dmitrijs2005/contactbook/internal/timex"

// User is the signed-in principal. It is read-only to the client.
type User struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt timex.Time `json:"createdAt,omitempty"`
}

// TokenResponse is the login response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}
