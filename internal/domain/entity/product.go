package entity

import "time"

// Product is the slice of the listing document the messaging core needs:
// resolving a product id to its seller for product-scoped conversations.
// Listing CRUD lives in a separate service.
type Product struct {
	ID       string  `json:"id" firestore:"id"`
	SellerID string  `json:"seller_id" firestore:"sellerId"`
	Title    string  `json:"title" firestore:"title"`
	Price    float64 `json:"price" firestore:"price"`
	Status   string  `json:"status" firestore:"status"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
