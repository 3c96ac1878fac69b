// internal/core/domain/catalog.go
package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9-]+$`)

// Item is a catalog entry. The ledger only reads items.
type Item struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	SKU         string          `json:"sku" db:"sku"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	BasePrice   decimal.Decimal `json:"base_price" db:"base_price"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Validate applies the catalog's field rules.
func (i *Item) Validate() error {
	if i.SKU == "" || len(i.SKU) > 100 || !skuPattern.MatchString(i.SKU) {
		return validationError("sku %q must match %s and not exceed 100 characters", i.SKU, skuPattern)
	}
	if i.Name == "" || len(i.Name) > 255 {
		return validationError("name is required and must not exceed 255 characters")
	}
	if len(i.Description) > 2000 {
		return validationError("description must not exceed 2000 characters")
	}
	if i.BasePrice.IsNegative() {
		return validationError("base_price must not be negative")
	}
	return nil
}

// Variant is a sellable variation of an item.
type Variant struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	ItemID          uuid.UUID       `json:"item_id" db:"item_id"`
	VariantSKU      string          `json:"variant_sku" db:"variant_sku"`
	Name            string          `json:"name" db:"name"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment" db:"price_adjustment"`
	IsActive        bool            `json:"is_active" db:"is_active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Validate applies the catalog's field rules.
func (v *Variant) Validate() error {
	if v.ItemID == uuid.Nil {
		return validationError("item_id is required")
	}
	if v.VariantSKU == "" || len(v.VariantSKU) > 100 || !skuPattern.MatchString(v.VariantSKU) {
		return validationError("variant_sku %q is malformed", v.VariantSKU)
	}
	return nil
}

// UnitPrice is the item base price plus the variant adjustment, if any.
// It fails when either product is inactive or the variant belongs to a
// different item.
func UnitPrice(item *Item, variant *Variant) (decimal.Decimal, error) {
	if !item.IsActive {
		return decimal.Zero, fmt.Errorf("%w: item %s", ErrInactiveProduct, item.ID)
	}
	price := item.BasePrice
	if variant != nil {
		if variant.ItemID != item.ID {
			return decimal.Zero, NewNotFound("variant", variant.ID)
		}
		if !variant.IsActive {
			return decimal.Zero, fmt.Errorf("%w: variant %s", ErrInactiveProduct, variant.ID)
		}
		price = price.Add(variant.PriceAdjustment)
	}
	if price.IsNegative() {
		return decimal.Zero, validationError("unit price for item %s is negative", item.ID)
	}
	return price, nil
}
