package storefront

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ParsePrice parses a form price. It must be a decimal number >= 0.
func ParsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, invalid("price", "is required")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, invalid("price", "must be a number")
	}
	if price.IsNegative() {
		return decimal.Zero, invalid("price", "must not be negative")
	}
	return price, nil
}

func validateProductFields(f ProductFields) (decimal.Decimal, error) {
	if strings.TrimSpace(f.Name) == "" {
		return decimal.Zero, invalid("name", "is required")
	}
	return ParsePrice(f.Price)
}

func validatePostFields(f PostFields) error {
	if strings.TrimSpace(f.Title) == "" {
		return invalid("title", "is required")
	}
	return nil
}

func validateReview(in ReviewInput) error {
	if strings.TrimSpace(in.ReviewerName) == "" {
		return invalid("reviewer_name", "is required")
	}
	if in.Rating < MinRating || in.Rating > MaxRating {
		return invalid("rating", "must be between 1 and 5")
	}
	if strings.TrimSpace(in.Comment) == "" {
		return invalid("comment", "is required")
	}
	return nil
}

func validateContact(msg ContactMessage) error {
	if strings.TrimSpace(msg.Name) == "" {
		return invalid("name", "is required")
	}
	if strings.TrimSpace(msg.Email) == "" {
		return invalid("email", "is required")
	}
	if strings.TrimSpace(msg.Message) == "" {
		return invalid("message", "is required")
	}
	return nil
}
