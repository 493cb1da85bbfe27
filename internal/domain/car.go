package domain

import "fmt"

type Car struct {
	ID               int32    `json:"id"`
	Brand            string   `json:"brand"`
	Model            string   `json:"model"`
	Year             int      `json:"year"`
	PricePerDay      float64  `json:"price_per_day"`
	RentalRatePerDay *float64 `json:"rental_rate_per_day,omitempty"`
	Available        bool     `json:"available"`
	ImageURL         string   `json:"image_url,omitempty"`
	Description      string   `json:"description,omitempty"`
}

// DailyRate prefers rental_rate_per_day and falls back to price_per_day
func (c *Car) DailyRate() Money {
	if c.RentalRatePerDay != nil && *c.RentalRatePerDay > 0 {
		return MoneyFromFloat(*c.RentalRatePerDay)
	}
	return MoneyFromFloat(c.PricePerDay)
}

func (c *Car) DisplayName() string {
	return fmt.Sprintf("%s %s (%d)", c.Brand, c.Model, c.Year)
}

// CarInput is the create/update payload for the admin fleet screens
type CarInput struct {
	Brand       string  `json:"brand" validate:"required"`
	Model       string  `json:"model" validate:"required"`
	Year        int     `json:"year" validate:"required,gte=1900,lte=2100"`
	PricePerDay float64 `json:"price_per_day" validate:"gt=0"`
	Available   *bool   `json:"available,omitempty"`
	ImageURL    string  `json:"image_url,omitempty" validate:"omitempty,url"`
	Description string  `json:"description,omitempty"`
}

type AvailabilityUpdate struct {
	Available bool `json:"available"`
}

// CarIndex maps car ids to cars for joining rental lists
func CarIndex(cars []Car) map[int32]*Car {
	idx := make(map[int32]*Car, len(cars))
	for i := range cars {
		idx[cars[i].ID] = &cars[i]
	}
	return idx
}
