package allocator

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownItem means an ordered item is not listed by any warehouse
	ErrUnknownItem = errors.New("item not stocked by any warehouse")
	// ErrInsufficientStock means demand exceeds the stock of all warehouses combined
	ErrInsufficientStock = errors.New("insufficient stock across warehouses")
	// ErrInvalidWarehouse is returned by ValidateWarehouses
	ErrInvalidWarehouse = errors.New("invalid warehouse")
)

// Allocate decides which warehouses ship which quantities of each ordered item.
//
// Items are processed in order. An item one warehouse can cover alone goes
// entirely to the first such warehouse. Otherwise the demand is split over as
// few warehouses as the heuristic finds, preferring earlier warehouses on ties.
// Items with a quantity of zero or less are skipped.
//
// The order is all or nothing: if any item is unknown or under-stocked the
// result is empty. The result is never nil.
func Allocate(order *Order, warehouses []Warehouse) []Parcel {
	parcels, err := Plan(order, warehouses)
	if err != nil {
		return []Parcel{}
	}
	return parcels
}

// Plan is Allocate with the reason for a rejected order. On error the
// returned parcels are empty.
func Plan(order *Order, warehouses []Warehouse) ([]Parcel, error) {
	if order == nil {
		return []Parcel{}, nil
	}

	catalog := NewCatalog(warehouses)
	shipment := NewShipment()

	for line := order.Oldest(); line != nil; line = line.Next() {
		item, requested := line.Key, line.Value

		stock, ok := catalog.Lookup(item)
		if !ok {
			return []Parcel{}, fmt.Errorf("%w: %q", ErrUnknownItem, item)
		}
		if requested > stock.Total {
			return []Parcel{}, fmt.Errorf("%w: %q requested %d, available %d",
				ErrInsufficientStock, item, requested, stock.Total)
		}
		if requested <= 0 {
			continue
		}

		allocateItem(shipment, item, requested, stock)
	}

	return shipment.Parcels(), nil
}

// allocateItem assigns requested units of item. requested must be positive
// and no larger than stock.Total.
func allocateItem(shipment *Shipment, item string, requested int, stock Stock) {
	remaining := stock.Total
	acc := NewAccumulator()

	for _, h := range stock.Distribution {
		if requested <= h.Quantity {
			shipment.Assign(h.Warehouse, item, requested)
			return
		}

		remaining -= h.Quantity
		acc.Insert(h.Warehouse, h.Quantity)
		acc.Trim(requested)

		// every warehouse stocking the item has been seen
		if remaining == 0 {
			acc.Distribute(shipment, item, requested)
			return
		}
	}
}

// ValidateWarehouses checks that names are present and unique and that no
// quantity is negative
func ValidateWarehouses(warehouses []Warehouse) error {
	seen := make(map[string]struct{}, len(warehouses))
	for i, w := range warehouses {
		if w.Name == "" {
			return fmt.Errorf("%w: warehouse at position %d has no name", ErrInvalidWarehouse, i)
		}
		if _, dup := seen[w.Name]; dup {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidWarehouse, w.Name)
		}
		seen[w.Name] = struct{}{}

		if w.Inventory == nil {
			continue
		}
		for pair := w.Inventory.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value < 0 {
				return fmt.Errorf("%w: %q holds negative quantity %d of %q",
					ErrInvalidWarehouse, w.Name, pair.Value, pair.Key)
			}
		}
	}
	return nil
}
