package types

import "github.com/golang-jwt/jwt/v4"

type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}
