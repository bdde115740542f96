package models

import (
	"fmt"
	"os"
	"time"

	"github.com/sander-remitly/inventory-allocator/internal/allocator"
	"gopkg.in/yaml.v3"
)

// AllocateRequest represents the API request for an allocation
type AllocateRequest struct {
	Order      *allocator.Order      `json:"order" yaml:"order"`
	Warehouses []allocator.Warehouse `json:"warehouses,omitempty" yaml:"warehouses,omitempty"` // Optional: use stored warehouses if not provided
}

// AllocateResponse represents the API response for an allocation
type AllocateResponse struct {
	ID                string             `json:"id,omitempty"`              // History entry ID (absent for cached results)
	Shipment          []allocator.Parcel `json:"shipment"`                  // One entry per warehouse, empty if rejected
	Fulfilled         bool               `json:"fulfilled"`                 // Whether the order can be shipped
	Reason            string             `json:"reason,omitempty"`          // Why the order was rejected
	WarehousesUsed    int                `json:"warehouses_used"`           // Number of warehouses shipping
	CalculationTimeMs int64              `json:"calculation_time_ms"`       // Time taken in milliseconds
	Cached            bool               `json:"cached"`                    // Whether result was from cache
	CacheTTL          string             `json:"cache_ttl,omitempty"`       // Current cache TTL (if cached)
	CacheHitCount     int                `json:"cache_hit_count,omitempty"` // Number of times this result was served from cache
}

// WarehouseConfig represents the stored warehouse list
type WarehouseConfig struct {
	Warehouses []allocator.Warehouse `json:"warehouses"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// WarehouseUpdateRequest represents a request to replace the stored warehouses
type WarehouseUpdateRequest struct {
	Warehouses []allocator.Warehouse `json:"warehouses" yaml:"warehouses"`
}

// WarehouseUpdateResponse represents the response after replacing warehouses
type WarehouseUpdateResponse struct {
	Warehouses []allocator.Warehouse `json:"warehouses"`
	UpdatedAt  time.Time             `json:"updated_at"`
	Message    string                `json:"message"`
}

// Sample is a canned allocation request
type Sample struct {
	Name    string          `json:"name"`
	Request AllocateRequest `json:"request"`
}

// SamplesResponse represents the API response for samples
type SamplesResponse struct {
	Samples []Sample `json:"samples"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
}

// HistoryEntry represents an allocation history entry
type HistoryEntry struct {
	ID             string             `json:"id"`
	Order          *allocator.Order   `json:"order"`
	Shipment       []allocator.Parcel `json:"shipment"`
	Fulfilled      bool               `json:"fulfilled"`
	Reason         string             `json:"reason,omitempty"`
	WarehousesUsed int                `json:"warehouses_used"`
	Timestamp      time.Time          `json:"timestamp"`
}

// HistoryResponse represents the API response for history
type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
	Count   int            `json:"count"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// CacheStatsResponse represents cache statistics
type CacheStatsResponse struct {
	Enabled    bool    `json:"enabled"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	TotalKeys  int64   `json:"total_keys"`
	MemoryUsed string  `json:"memory_used"`
	Uptime     string  `json:"uptime"`
}

// LoadAllocateRequest reads an allocation request from a YAML or JSON file.
// Mapping keys keep the order they appear in the file.
func LoadAllocateRequest(path string) (*AllocateRequest, error) {
	var req AllocateRequest
	if err := decodeFile(path, &req); err != nil {
		return nil, err
	}
	if req.Order == nil {
		return nil, fmt.Errorf("%s: missing order", path)
	}
	return &req, nil
}

// LoadWarehouses reads a warehouse list from a YAML or JSON file. The file
// holds either a bare list or a mapping with a "warehouses" key.
func LoadWarehouses(path string) ([]allocator.Warehouse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("%s: empty document", path)
	}

	doc := root.Content[0]
	if doc.Kind == yaml.SequenceNode {
		var warehouses []allocator.Warehouse
		if err := doc.Decode(&warehouses); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return warehouses, nil
	}

	var req WarehouseUpdateRequest
	if err := doc.Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return req.Warehouses, nil
}

func decodeFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// GetSamples returns canned allocation requests
func GetSamples() []Sample {
	return []Sample{
		{
			Name: "Even split",
			Request: AllocateRequest{
				Order: allocator.NewOrder(allocator.Line{Item: "apple", Quantity: 10}),
				Warehouses: []allocator.Warehouse{
					{Name: "owd", Inventory: allocator.NewInventory(allocator.Line{Item: "apple", Quantity: 5})},
					{Name: "dm", Inventory: allocator.NewInventory(allocator.Line{Item: "apple", Quantity: 5})},
				},
			},
		},
		{
			Name: "Fewest warehouses",
			Request: AllocateRequest{
				Order: allocator.NewOrder(allocator.Line{Item: "apple", Quantity: 11}),
				Warehouses: []allocator.Warehouse{
					{Name: "owd", Inventory: allocator.NewInventory(allocator.Line{Item: "apple", Quantity: 5})},
					{Name: "dm", Inventory: allocator.NewInventory(allocator.Line{Item: "apple", Quantity: 5})},
					{Name: "om", Inventory: allocator.NewInventory(allocator.Line{Item: "apple", Quantity: 6})},
				},
			},
		},
		{
			Name: "Skipped line",
			Request: AllocateRequest{
				Order: allocator.NewOrder(
					allocator.Line{Item: "apple", Quantity: 0},
					allocator.Line{Item: "orange", Quantity: 4},
				),
				Warehouses: []allocator.Warehouse{
					{Name: "owd", Inventory: allocator.NewInventory(allocator.Line{Item: "apple", Quantity: 7})},
					{Name: "dm", Inventory: allocator.NewInventory(allocator.Line{Item: "orange", Quantity: 5})},
				},
			},
		},
		{
			Name: "Unknown item",
			Request: AllocateRequest{
				Order: allocator.NewOrder(
					allocator.Line{Item: "apple", Quantity: 6},
					allocator.Line{Item: "orange", Quantity: 4},
					allocator.Line{Item: "banana", Quantity: 10},
				),
				Warehouses: []allocator.Warehouse{
					{Name: "owd", Inventory: allocator.NewInventory(allocator.Line{Item: "apple", Quantity: 7})},
					{Name: "dm", Inventory: allocator.NewInventory(allocator.Line{Item: "orange", Quantity: 5})},
				},
			},
		},
	}
}
