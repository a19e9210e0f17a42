// Package profile assembles the signed-in reader's account page.
package profile

import (
	"strings"

	"github.com/shopspring/decimal"
)

type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	ProviderID  string `json:"provider_id"`
}

type Stats struct {
	CartLines     int             `json:"cart_lines"`
	CartItems     int             `json:"cart_items"`
	CartTotal     decimal.Decimal `json:"cart_total"`
	WishlistCount int             `json:"wishlist_count"`
	OrderCount    int             `json:"order_count"`
}

type Profile struct {
	User    User    `json:"user"`
	Details Details `json:"details"`
	Stats   Stats   `json:"stats"`
	Orders  []Order `json:"orders"`
}

// displayName falls back to the local part of the email address.
func displayName(name, email string) string {
	if name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}
