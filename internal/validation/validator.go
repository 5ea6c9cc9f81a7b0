package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with the struct-level rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterStructValidation(orderItemStructValidation, OrderItem{})

	return v
}

// orderItemStructValidation requires a menu item id and a non-negative unit price in whole cents.
func orderItemStructValidation(sl validatorv10.StructLevel) {
	it := sl.Current().Interface().(OrderItem)

	if it.ItemID() <= 0 {
		sl.ReportError(it.MenuItemID, "menu_item_id", "MenuItemID", "required", "")
	}
	if it.Price != nil && it.Price.IsNegative() {
		sl.ReportError(it.Price, "price", "Price", "gte", "0")
	}
	if it.Price != nil && !it.Price.Equal(it.Price.Round(2)) {
		sl.ReportError(it.Price, "price", "Price", "cents", "2")
	}
}
