package ordersvc

import (
	"github.com/corray333/backend-labs/delivery/internal/service/errs"
	"github.com/corray333/backend-labs/delivery/internal/service/models/dish"
	"github.com/corray333/backend-labs/delivery/internal/service/models/orderitem"
)

// PriceItem returns the price of one order line: the dish price plus the extras of every selected
// option and choice. A selection without a choice adds only the option extra.
func PriceItem(d dish.Dish, selections []orderitem.Selection) (float64, error) {
	price := d.Price

	for _, sel := range selections {
		opt, ok := d.FindOption(sel.Name)
		if !ok {
			return 0, errs.NotFound(msgOptionNotFound, sel.Name)
		}
		if opt.Extra != nil {
			price += *opt.Extra
		}

		if sel.Choice == nil || *sel.Choice == "" {
			continue
		}

		choice, ok := opt.FindChoice(*sel.Choice)
		if !ok {
			return 0, errs.NotFound(msgChoiceNotFound, *sel.Choice)
		}
		if choice.Extra != nil {
			price += *choice.Extra
		}
	}

	return price, nil
}
