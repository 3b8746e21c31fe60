package domain

import "time"

// CartItem is an open JSON object. Besides the product reference and quantity,
// callers may attach any fields they need; they are stored as-is.
type CartItem map[string]any

// Cart holds the items a user has selected. There is exactly one cart per user.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}
