// Package model contains simple struct definitions shared across packages.
package model

import (
	"fmt"
	"time"
)

// Category is the closed set of food categories. In Go a type declared via
// "type X string" creates a new named type with string as the underlying
// representation, enabling better type safety than using plain strings.
type Category string

const (
	CategoryFruits     Category = "fruits"
	CategoryVegetables Category = "vegetables"
	CategoryDairy      Category = "dairy"
	CategoryPacked     Category = "packed"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{CategoryFruits, CategoryVegetables, CategoryDairy, CategoryPacked}
}

// ParseCategory validates a raw string against the closed category set.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// FoodItem holds one tracked perishable. Struct tags such as `json:"id"`
// instruct the encoding/json package to use custom field names when
// marshalling/unmarshalling.
type FoodItem struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Category   Category  `json:"category"`
	ExpiryDate time.Time `json:"expiryDate"`
	// Image is an object key, data URI, or placeholder path.
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	Notes     string    `json:"notes,omitempty"`
	// Freshness is a 1-5 rating, meaningful only when Category is fruits.
	// The store does not enforce the pairing; callers do.
	Freshness *int `json:"freshness,omitempty"`
}

// FormData carries everything a caller supplies when adding an item. ID and
// CreatedAt are store-assigned and deliberately absent.
type FormData struct {
	Name       string    `json:"name"`
	Category   Category  `json:"category"`
	ExpiryDate time.Time `json:"expiryDate"`
	Image      string    `json:"image"`
	Notes      string    `json:"notes,omitempty"`
	Freshness  *int      `json:"freshness,omitempty"`
}

// Patch is a partial update merged over an existing item. Pointer fields
// distinguish "leave unchanged" (nil) from "set to zero value".
type Patch struct {
	Name       *string    `json:"name,omitempty"`
	Category   *Category  `json:"category,omitempty"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	Image      *string    `json:"image,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	Freshness  *int       `json:"freshness,omitempty"`
}

// NotificationSettings controls the expiry watcher. Session-scoped by
// default; the Postgres settings store persists it across restarts.
type NotificationSettings struct {
	Enabled bool `json:"enabled"`
	// ThresholdDays is how far ahead of expiry a notification fires.
	// The UI convention is 1-14; the store does not enforce it.
	ThresholdDays int `json:"threshold"`
}

// DefaultNotificationSettings mirrors the defaults the app starts with.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{Enabled: true, ThresholdDays: 3}
}

// Prediction is one classifier result. Produced transiently; never stored.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}
