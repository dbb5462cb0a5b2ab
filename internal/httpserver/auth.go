package httpserver

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Identity is the tenant scope carried by the auth provider's access token.
type Identity struct {
	StoreID  uint
	ClientID string
}

// GetIdentity validates the accessToken cookie and extracts the store_id
// (tenant) and sub claims. Token issuance lives with the external auth
// provider; only verification happens here.
func GetIdentity(c echo.Context, jwtSecret []byte) (Identity, error) {
	cookie, err := c.Cookie("accessToken")
	if err != nil {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing auth cookie")
	}
	tokenString := cookie.Value
	if tokenString == "" {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "empty token")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid token: "+err.Error())
	}
	if !token.Valid {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}

	storeRaw, ok := claims["store_id"].(float64)
	if !ok || storeRaw <= 0 {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid store claim")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid subject claim")
	}

	return Identity{StoreID: uint(storeRaw), ClientID: sub}, nil
}
