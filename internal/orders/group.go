package orders

// GroupRows folds flat order/item rows into nested orders. Order of first
// appearance is kept for both orders and their items.
func GroupRows(rows []FlatRow) []Order {
	out := make([]Order, 0)
	index := make(map[int64]int)

	for _, row := range rows {
		pos, ok := index[row.OrderID]
		if !ok {
			out = append(out, Order{
				OrderID:       row.OrderID,
				TableNumber:   row.TableNumber,
				Subtotal:      row.Subtotal,
				Tax:           row.Tax,
				Discount:      row.Discount,
				TotalAmount:   row.TotalAmount,
				PaymentStatus: row.PaymentStatus,
				OrderStatus:   row.OrderStatus,
				CreatedAt:     row.CreatedAt,
				Items:         []OrderItem{},
			})
			pos = len(out) - 1
			index[row.OrderID] = pos
		}

		// LEFT JOIN: an order without items yields one row with NULL item columns
		if row.OrderItemID == nil {
			continue
		}

		item := OrderItem{
			OrderItemID: *row.OrderItemID,
			OrderID:     row.OrderID,
			Price:       row.Price.Decimal,
		}
		if row.MenuItemID != nil {
			item.MenuItemID = *row.MenuItemID
		}
		if row.Quantity != nil {
			item.Quantity = *row.Quantity
		}
		out[pos].Items = append(out[pos].Items, item)
	}
	return out
}
