package allocator

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Order maps item names to requested quantities.
// Iteration order decides allocation order and output order.
type Order = orderedmap.OrderedMap[string, int]

// Inventory maps item names to quantities on hand
type Inventory = orderedmap.OrderedMap[string, int]

// Items maps item names to allocated quantities within one warehouse
type Items = orderedmap.OrderedMap[string, int]

// Line is a single item/quantity pair used to build ordered mappings
type Line struct {
	Item     string
	Quantity int
}

// Warehouse is a named inventory. The position of a warehouse in the list
// passed to Allocate is its preference: earlier warehouses are cheaper.
type Warehouse struct {
	Name      string     `json:"name" yaml:"name"`
	Inventory *Inventory `json:"inventory" yaml:"inventory"`
}

// NewOrder builds an order from lines, keeping their order.
// A repeated item overwrites the earlier quantity in place.
func NewOrder(lines ...Line) *Order {
	return newQuantities(lines)
}

// NewInventory builds an inventory from lines, keeping their order
func NewInventory(lines ...Line) *Inventory {
	return newQuantities(lines)
}

func newQuantities(lines []Line) *orderedmap.OrderedMap[string, int] {
	m := orderedmap.New[string, int](len(lines))
	for _, l := range lines {
		m.Set(l.Item, l.Quantity)
	}
	return m
}
