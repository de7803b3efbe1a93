package dish

import "time"

// Choice is a named variant of an option, optionally with a surcharge.
type Choice struct {
	Name  string   `json:"name"`
	Extra *float64 `json:"extra,omitempty"`
}

// Option is a named customization of a dish.
type Option struct {
	Name    string   `json:"name"`
	Extra   *float64 `json:"extra,omitempty"`
	Choices []Choice `json:"choices,omitempty"`
}

// FindChoice returns the choice with the given name.
func (o Option) FindChoice(name string) (Choice, bool) {
	for _, c := range o.Choices {
		if c.Name == name {
			return c, true
		}
	}

	return Choice{}, false
}

// Dish is a menu item of a restaurant.
type Dish struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurantId"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	Photo        string    `json:"photo,omitempty"`
	Description  string    `json:"description"`
	Options      []Option  `json:"options,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FindOption returns the option with the given name.
func (d Dish) FindOption(name string) (Option, bool) {
	for _, o := range d.Options {
		if o.Name == name {
			return o, true
		}
	}

	return Option{}, false
}
