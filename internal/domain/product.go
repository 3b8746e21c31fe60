package domain

import "time"

// Product represents a catalog entry.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SeedProducts returns the default catalog inserted when the product collection is empty.
// Seed images are external URLs and are never managed by the image store.
func SeedProducts() []Product {
	return []Product{
		{
			Name:        "Compresas Suaves",
			Description: "Paquete de 20 compresas ultra suaves.",
			Price:       1000,
			ImageURL:    "https://images.unsplash.com/photo-1592928306923-7a1b9b2fec1b?auto=format&fit=crop&w=800&q=60",
		},
		{
			Name:        "Protectores Diarios",
			Description: "Protectores discretos para el día a día.",
			Price:       1000,
			ImageURL:    "https://images.unsplash.com/photo-1542831371-d531d36971e6?auto=format&fit=crop&w=800&q=60",
		},
		{
			Name:        "Copas Menstruales",
			Description: "Reutilizable, ecológica y cómoda.",
			Price:       1000,
			ImageURL:    "https://images.unsplash.com/photo-1603575448362-7b6d2d7f9d76?auto=format&fit=crop&w=800&q=60",
		},
		{
			Name:        "Toallitas Íntimas",
			Description: "Frescor y cuidado íntimo.",
			Price:       1000,
			ImageURL:    "https://images.unsplash.com/photo-1522335789203-aabd1fc54bc9?auto=format&fit=crop&w=800&q=60",
		},
	}
}
