package allocator

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Shipment accumulates warehouse -> item -> quantity assignments.
// Warehouses keep the order in which they were first assigned anything.
type Shipment struct {
	warehouses *orderedmap.OrderedMap[string, *Items]
}

// NewShipment creates an empty shipment
func NewShipment() *Shipment {
	return &Shipment{
		warehouses: orderedmap.New[string, *Items](),
	}
}

// Assign records quantity of item drawn from warehouse
func (s *Shipment) Assign(warehouse, item string, quantity int) {
	items, ok := s.warehouses.Get(warehouse)
	if !ok {
		items = orderedmap.New[string, int]()
		s.warehouses.Set(warehouse, items)
	}
	items.Set(item, quantity)
}

// Len returns the number of warehouses touched so far
func (s *Shipment) Len() int {
	return s.warehouses.Len()
}

// Parcels renders the shipment as one parcel per warehouse in first-touch order
func (s *Shipment) Parcels() []Parcel {
	parcels := make([]Parcel, 0, s.warehouses.Len())
	for pair := s.warehouses.Oldest(); pair != nil; pair = pair.Next() {
		parcels = append(parcels, Parcel{Warehouse: pair.Key, Items: pair.Value})
	}
	return parcels
}

// Parcel is the part of a shipment drawn from a single warehouse.
// It encodes as a single-entry object: {"warehouse": {"item": quantity}}.
type Parcel struct {
	Warehouse string
	Items     *Items
}

// Units returns the total number of units in the parcel
func (p Parcel) Units() int {
	if p.Items == nil {
		return 0
	}
	total := 0
	for pair := p.Items.Oldest(); pair != nil; pair = pair.Next() {
		total += pair.Value
	}
	return total
}

func (p Parcel) MarshalJSON() ([]byte, error) {
	m := orderedmap.New[string, *Items](1)
	m.Set(p.Warehouse, p.itemsOrEmpty())
	return json.Marshal(m)
}

func (p *Parcel) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, *Items]()
	if err := json.Unmarshal(data, m); err != nil {
		return err
	}
	return p.fromSingleEntry(m)
}

func (p Parcel) MarshalYAML() (interface{}, error) {
	value := &yaml.Node{}
	if err := value.Encode(p.itemsOrEmpty()); err != nil {
		return nil, err
	}
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Warehouse},
			value,
		},
	}, nil
}

func (p *Parcel) UnmarshalYAML(node *yaml.Node) error {
	m := orderedmap.New[string, *Items]()
	if err := node.Decode(m); err != nil {
		return err
	}
	return p.fromSingleEntry(m)
}

func (p Parcel) itemsOrEmpty() *Items {
	if p.Items == nil {
		return orderedmap.New[string, int]()
	}
	return p.Items
}

func (p *Parcel) fromSingleEntry(m *orderedmap.OrderedMap[string, *Items]) error {
	if m.Len() != 1 {
		return fmt.Errorf("parcel must have exactly one warehouse, got %d", m.Len())
	}
	pair := m.Oldest()
	p.Warehouse = pair.Key
	p.Items = pair.Value
	return nil
}

// WarehousesUsed counts the distinct warehouses in a parcel list
func WarehousesUsed(parcels []Parcel) int {
	seen := make(map[string]struct{}, len(parcels))
	for _, p := range parcels {
		seen[p.Warehouse] = struct{}{}
	}
	return len(seen)
}
