package service

import "github.com/rl1809/order-console/internal/core/domain"

// Consolidate drops unselected rows and merges rows sharing an identity key,
// summing their quantities. Groups keep the local id of their first row and
// come out in first-appearance order.
func Consolidate(rows []domain.LineItem) []domain.ConsolidatedItem {
	index := make(map[string]int, len(rows))
	var out []domain.ConsolidatedItem

	for _, row := range rows {
		switch sel := row.Selection.(type) {
		case domain.Selected:
			key := sel.IdentityKey()
			if i, ok := index[key]; ok {
				out[i].Quantity += row.Quantity
				continue
			}
			index[key] = len(out)
			out = append(out, domain.ConsolidatedItem{
				LocalID:    row.LocalID,
				ProductRef: sel.ProductRef,
				Name:       sel.Name,
				Quantity:   row.Quantity,
			})
		case domain.Unselected, nil:
			continue
		}
	}

	return out
}
