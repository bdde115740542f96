package allocator

// Holding is the quantity of one item held by one warehouse
type Holding struct {
	Warehouse string
	Quantity  int
}

// Stock is the cross-warehouse view of a single item
type Stock struct {
	Total        int       // sum of Quantity over Distribution
	Distribution []Holding // in warehouse-list order
}

// Catalog is a reverse index from item name to the warehouses holding it.
// It is built once per allocation and never modified afterwards.
type Catalog struct {
	items map[string]*Stock
}

// NewCatalog indexes the inventories of warehouses
func NewCatalog(warehouses []Warehouse) *Catalog {
	c := &Catalog{items: make(map[string]*Stock)}

	for _, w := range warehouses {
		if w.Inventory == nil {
			continue
		}
		for pair := w.Inventory.Oldest(); pair != nil; pair = pair.Next() {
			stock, ok := c.items[pair.Key]
			if !ok {
				stock = &Stock{}
				c.items[pair.Key] = stock
			}
			stock.Total += pair.Value
			stock.Distribution = append(stock.Distribution, Holding{
				Warehouse: w.Name,
				Quantity:  pair.Value,
			})
		}
	}

	return c
}

// Lookup returns the stock of item, if any warehouse lists it
func (c *Catalog) Lookup(item string) (Stock, bool) {
	stock, ok := c.items[item]
	if !ok {
		return Stock{}, false
	}
	return *stock, true
}

// Len returns the number of distinct items in the catalog
func (c *Catalog) Len() int {
	return len(c.items)
}
