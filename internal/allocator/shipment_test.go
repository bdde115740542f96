package allocator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestShipment_FirstTouchOrder(t *testing.T) {
	s := NewShipment()
	s.Assign("dm", "apple", 3)
	s.Assign("owd", "orange", 1)
	s.Assign("dm", "kiwi", 2)
	s.Assign("dm", "apple", 4)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"dm:apple=4,kiwi=2", "owd:orange=1"}, describe(s.Parcels()))
}

func TestShipment_EmptyParcelsNotNil(t *testing.T) {
	parcels := NewShipment().Parcels()
	require.NotNil(t, parcels)
	assert.Empty(t, parcels)
}

func TestParcel_JSON(t *testing.T) {
	parcels := []Parcel{
		{Warehouse: "owd", Items: NewInventory(Line{"apple", 5}, Line{"banana", 1})},
		{Warehouse: "dm", Items: NewInventory(Line{"apple", 5})},
	}

	data, err := json.Marshal(parcels)
	require.NoError(t, err)
	assert.Equal(t, `[{"owd":{"apple":5,"banana":1}},{"dm":{"apple":5}}]`, string(data))

	var decoded []Parcel
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, describe(parcels), describe(decoded))
}

func TestParcel_JSONNilItems(t *testing.T) {
	data, err := json.Marshal(Parcel{Warehouse: "owd"})
	require.NoError(t, err)
	assert.Equal(t, `{"owd":{}}`, string(data))
}

func TestParcel_UnmarshalRejectsMultipleWarehouses(t *testing.T) {
	var p Parcel
	err := json.Unmarshal([]byte(`{"owd":{"apple":1},"dm":{"apple":1}}`), &p)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{}`), &p)
	assert.Error(t, err)
}

func TestParcel_YAML(t *testing.T) {
	parcels := []Parcel{
		{Warehouse: "owd", Items: NewInventory(Line{"pear", 2}, Line{"apple", 5})},
		{Warehouse: "dm", Items: NewInventory(Line{"apple", 5})},
	}

	data, err := yaml.Marshal(parcels)
	require.NoError(t, err)

	var decoded []Parcel
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, describe(parcels), describe(decoded))
}

func TestParcel_Units(t *testing.T) {
	assert.Equal(t, 0, Parcel{Warehouse: "owd"}.Units())
	assert.Equal(t, 7, Parcel{Warehouse: "owd", Items: NewInventory(Line{"apple", 5}, Line{"pear", 2})}.Units())
}

func TestWarehousesUsed(t *testing.T) {
	assert.Equal(t, 0, WarehousesUsed(nil))
	assert.Equal(t, 2, WarehousesUsed([]Parcel{{Warehouse: "owd"}, {Warehouse: "dm"}}))
}
