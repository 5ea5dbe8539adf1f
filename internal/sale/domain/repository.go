package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository appends rows through db, which may be a transaction handle.
// Implementations fill in the store-assigned ID.
type Repository interface {
	InsertSession(ctx context.Context, db *gorm.DB, session *Session) error
	InsertProduct(ctx context.Context, db *gorm.DB, product *Product) error
}
