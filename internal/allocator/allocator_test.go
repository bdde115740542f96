package allocator

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// describe renders parcels as "warehouse:item=qty,item=qty" in output order
func describe(parcels []Parcel) []string {
	out := make([]string, 0, len(parcels))
	for _, p := range parcels {
		var items []string
		if p.Items != nil {
			for pair := p.Items.Oldest(); pair != nil; pair = pair.Next() {
				items = append(items, fmt.Sprintf("%s=%d", pair.Key, pair.Value))
			}
		}
		out = append(out, p.Warehouse+":"+strings.Join(items, ","))
	}
	return out
}

func warehouse(name string, lines ...Line) Warehouse {
	return Warehouse{Name: name, Inventory: NewInventory(lines...)}
}

func TestAllocate_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		order      *Order
		warehouses []Warehouse
		want       []string
	}{
		{
			name:  "Split evenly across two warehouses",
			order: NewOrder(Line{"apple", 10}),
			warehouses: []Warehouse{
				warehouse("owd", Line{"apple", 5}),
				warehouse("dm", Line{"apple", 5}),
			},
			want: []string{"owd:apple=5", "dm:apple=5"},
		},
		{
			name:  "Redundant middle warehouse dropped",
			order: NewOrder(Line{"apple", 11}),
			warehouses: []Warehouse{
				warehouse("owd", Line{"apple", 5}),
				warehouse("dm", Line{"apple", 5}),
				warehouse("om", Line{"apple", 6}),
			},
			want: []string{"owd:apple=5", "om:apple=6"},
		},
		{
			name:  "Equal quantities prefer earlier warehouses",
			order: NewOrder(Line{"apple", 8}),
			warehouses: []Warehouse{
				warehouse("owd", Line{"apple", 4}),
				warehouse("dm", Line{"apple", 4}),
				warehouse("om", Line{"apple", 4}),
			},
			want: []string{"owd:apple=4", "dm:apple=4"},
		},
		{
			name:  "Zero quantity omitted",
			order: NewOrder(Line{"apple", 0}, Line{"orange", 4}),
			warehouses: []Warehouse{
				warehouse("owd", Line{"apple", 7}),
				warehouse("dm", Line{"orange", 5}),
			},
			want: []string{"dm:orange=4"},
		},
		{
			name:  "Negative quantity omitted",
			order: NewOrder(Line{"apple", -3}, Line{"orange", 4}),
			warehouses: []Warehouse{
				warehouse("owd", Line{"apple", 7}),
				warehouse("dm", Line{"orange", 5}),
			},
			want: []string{"dm:orange=4"},
		},
		{
			name:  "Unknown item fails whole order",
			order: NewOrder(Line{"apple", 6}, Line{"orange", 4}, Line{"banana", 10}),
			warehouses: []Warehouse{
				warehouse("owd", Line{"apple", 7}),
				warehouse("dm", Line{"orange", 5}),
			},
			want: []string{},
		},
		{
			name:  "Unknown item with zero quantity still fails",
			order: NewOrder(Line{"apple", 6}, Line{"orange", 4}, Line{"banana", 0}),
			warehouses: []Warehouse{
				warehouse("owd", Line{"apple", 7}),
				warehouse("dm", Line{"orange", 5}),
			},
			want: []string{},
		},
		{
			name:  "Single warehouse preferred over earlier split",
			order: NewOrder(Line{"apple", 10}),
			warehouses: []Warehouse{
				warehouse("owd", Line{"apple", 5}),
				warehouse("dm", Line{"apple", 5}),
				warehouse("om", Line{"apple", 10}),
			},
			want: []string{"om:apple=10"},
		},
		{
			name:  "First covering warehouse wins",
			order: NewOrder(Line{"apple", 6}),
			warehouses: []Warehouse{
				warehouse("owd", Line{"apple", 7}),
				warehouse("dm", Line{"orange", 5}),
				warehouse("om", Line{"apple", 6}),
			},
			want: []string{"owd:apple=6"},
		},
		{
			name:  "Each item from its own warehouse",
			order: NewOrder(Line{"apple", 6}, Line{"orange", 4}, Line{"banana", 10}),
			warehouses: []Warehouse{
				warehouse("owd", Line{"apple", 7}),
				warehouse("dm", Line{"orange", 5}),
				warehouse("om", Line{"banana", 10}),
			},
			want: []string{"owd:apple=6", "dm:orange=4", "om:banana=10"},
		},
		{
			name:  "Empty inventories are ignored",
			order: NewOrder(Line{"apple", 6}, Line{"orange", 4}),
			warehouses: []Warehouse{
				warehouse("owd"),
				warehouse("dm", Line{"apple", 10}, Line{"orange", 5}),
				{Name: "om"},
			},
			want: []string{"dm:apple=6,orange=4"},
		},
		{
			name:  "Out of stock",
			order: NewOrder(Line{"apple", 6}),
			warehouses: []Warehouse{
				warehouse("owd", Line{"apple", 0}),
				warehouse("dm", Line{"orange", 0}),
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Allocate(tt.order, tt.warehouses)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, describe(got))
		})
	}
}

func TestAllocate_EmptyInput(t *testing.T) {
	tests := []struct {
		name       string
		order      *Order
		warehouses []Warehouse
	}{
		{
			name:       "Empty order",
			order:      NewOrder(),
			warehouses: []Warehouse{warehouse("owd", Line{"apple", 5})},
		},
		{
			name:  "Nil order",
			order: nil,
			warehouses: []Warehouse{
				warehouse("owd", Line{"apple", 5}),
			},
		},
		{
			name:       "Empty warehouse list",
			order:      NewOrder(Line{"apple", 6}),
			warehouses: []Warehouse{},
		},
		{
			name:       "Nil warehouse list",
			order:      NewOrder(Line{"apple", 6}),
			warehouses: nil,
		},
		{
			name:       "Both empty",
			order:      NewOrder(),
			warehouses: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Allocate(tt.order, tt.warehouses)
			require.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestAllocate_SharesWarehouseAcrossItems(t *testing.T) {
	order := NewOrder(Line{"apple", 9}, Line{"orange", 2})
	warehouses := []Warehouse{
		warehouse("owd", Line{"apple", 5}, Line{"orange", 1}),
		warehouse("dm", Line{"apple", 4}, Line{"orange", 1}),
	}

	got := Allocate(order, warehouses)

	assert.Equal(t, []string{"owd:apple=5,orange=1", "dm:apple=4,orange=1"}, describe(got))
	assert.Equal(t, 2, WarehousesUsed(got))
}

func TestPlan_Errors(t *testing.T) {
	warehouses := []Warehouse{
		warehouse("owd", Line{"apple", 5}),
		warehouse("dm", Line{"apple", 5}, Line{"orange", 2}),
	}

	tests := []struct {
		name    string
		order   *Order
		wantErr error
	}{
		{"Unknown item", NewOrder(Line{"apple", 1}, Line{"kiwi", 1}), ErrUnknownItem},
		{"Demand above total", NewOrder(Line{"apple", 11}), ErrInsufficientStock},
		{"Second item short", NewOrder(Line{"apple", 3}, Line{"orange", 3}), ErrInsufficientStock},
		{"Satisfiable", NewOrder(Line{"apple", 10}, Line{"orange", 2}), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parcels, err := Plan(tt.order, warehouses)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.NotEmpty(t, parcels)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
			assert.NotNil(t, parcels)
			assert.Empty(t, parcels)
		})
	}
}

func TestPlan_ErrorNamesItem(t *testing.T) {
	_, err := Plan(NewOrder(Line{"banana", 1}), []Warehouse{warehouse("owd", Line{"apple", 1})})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"banana"`)
}

func TestAllocate_DoesNotMutateInputs(t *testing.T) {
	order := NewOrder(Line{"apple", 11})
	warehouses := []Warehouse{
		warehouse("owd", Line{"apple", 5}),
		warehouse("dm", Line{"apple", 5}),
		warehouse("om", Line{"apple", 6}),
	}

	Allocate(order, warehouses)

	qty, _ := order.Get("apple")
	assert.Equal(t, 11, qty)
	for _, w := range warehouses {
		assert.Equal(t, 1, w.Inventory.Len())
	}
	om, _ := warehouses[2].Inventory.Get("apple")
	assert.Equal(t, 6, om)
}

// allocationCase is a recorded allocation with its expected parcels
type allocationCase struct {
	Name       string      `json:"name"`
	Order      *Order      `json:"order"`
	Warehouses []Warehouse `json:"warehouses"`
	Expected   []Parcel    `json:"expected"`
}

func loadCases(t *testing.T, file string) []allocationCase {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", file))
	require.NoError(t, err)

	var cases []allocationCase
	require.NoError(t, json.Unmarshal(data, &cases))
	require.NotEmpty(t, cases)
	return cases
}

func TestAllocate_ReferenceSuite(t *testing.T) {
	for _, tc := range loadCases(t, "reference_suite.json") {
		t.Run(tc.Name, func(t *testing.T) {
			got := Allocate(tc.Order, tc.Warehouses)
			assert.Equal(t, describe(tc.Expected), describe(got))
		})
	}
}

func TestAllocate_SeededCases(t *testing.T) {
	for _, tc := range loadCases(t, "seeded_cases.json") {
		t.Run(tc.Name, func(t *testing.T) {
			got := Allocate(tc.Order, tc.Warehouses)
			assert.Equal(t, describe(tc.Expected), describe(got))
		})
	}
}

func TestAllocate_FulfilledOrdersAreExact(t *testing.T) {
	cases := append(loadCases(t, "reference_suite.json"), loadCases(t, "seeded_cases.json")...)

	for _, tc := range cases {
		got := Allocate(tc.Order, tc.Warehouses)
		if len(got) == 0 {
			continue
		}

		shipped := make(map[string]int)
		seen := make(map[string]bool)
		for _, p := range got {
			assert.False(t, seen[p.Warehouse], "%s: warehouse %s appears twice", tc.Name, p.Warehouse)
			seen[p.Warehouse] = true
			for pair := p.Items.Oldest(); pair != nil; pair = pair.Next() {
				shipped[pair.Key] += pair.Value
			}
		}

		for line := tc.Order.Oldest(); line != nil; line = line.Next() {
			if line.Value <= 0 {
				assert.Zero(t, shipped[line.Key], "%s: %s should be skipped", tc.Name, line.Key)
				continue
			}
			assert.Equal(t, line.Value, shipped[line.Key], "%s: %s", tc.Name, line.Key)
		}
	}
}

func TestValidateWarehouses(t *testing.T) {
	tests := []struct {
		name       string
		warehouses []Warehouse
		wantErr    bool
	}{
		{"Valid", []Warehouse{warehouse("owd", Line{"apple", 5}), warehouse("dm")}, false},
		{"Nil inventory", []Warehouse{{Name: "owd"}}, false},
		{"Empty list", nil, false},
		{"Missing name", []Warehouse{warehouse("", Line{"apple", 5})}, true},
		{"Duplicate name", []Warehouse{warehouse("owd"), warehouse("owd")}, true},
		{"Negative quantity", []Warehouse{warehouse("owd", Line{"apple", -1})}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWarehouses(tt.warehouses)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidWarehouse)
				return
			}
			assert.NoError(t, err)
		})
	}
}
