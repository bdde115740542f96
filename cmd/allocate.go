package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sander-remitly/inventory-allocator/internal/allocator"
	"github.com/sander-remitly/inventory-allocator/internal/logger"
	"github.com/sander-remitly/inventory-allocator/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	requestFile  string
	outputFormat string
)

// allocateCmd represents the allocate command
var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Allocate an order from a request file",
	Long: `Allocate the order in a JSON or YAML request file and print the shipment.

The file holds an "order" mapping and an optional "warehouses" list. When the
list is missing, the warehouses stored in the database are used.`,
	RunE: runAllocate,
}

func init() {
	allocateCmd.Flags().StringVarP(&requestFile, "file", "f", "", "Request file (JSON or YAML)")
	allocateCmd.Flags().StringVarP(&outputFormat, "format", "o", "json", "Output format: json or yaml")
	_ = allocateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(allocateCmd)
}

// allocationResult is the printed outcome of a one-shot allocation
type allocationResult struct {
	Shipment       []allocator.Parcel `json:"shipment" yaml:"shipment"`
	Fulfilled      bool               `json:"fulfilled" yaml:"fulfilled"`
	Reason         string             `json:"reason,omitempty" yaml:"reason,omitempty"`
	WarehousesUsed int                `json:"warehouses_used" yaml:"warehouses_used"`
}

func runAllocate(cmd *cobra.Command, args []string) error {
	logger.Initialize(logger.WithVerbose(verbose))
	defer logger.Sync()

	req, err := models.LoadAllocateRequest(requestFile)
	if err != nil {
		return err
	}

	stored := func() ([]allocator.Warehouse, error) {
		repository, err := openRepository()
		if err != nil {
			return nil, err
		}
		defer repository.Close()
		return repository.GetWarehouses()
	}

	result, err := allocateRequest(req, stored)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), outputFormat, result)
}

// allocateRequest plans req, loading warehouses from stored when the request
// carries none
func allocateRequest(req *models.AllocateRequest, stored func() ([]allocator.Warehouse, error)) (*allocationResult, error) {
	warehouses := req.Warehouses
	if warehouses == nil {
		var err error
		warehouses, err = stored()
		if err != nil {
			return nil, fmt.Errorf("failed to get warehouses: %w", err)
		}
	}

	if err := allocator.ValidateWarehouses(warehouses); err != nil {
		return nil, err
	}

	start := time.Now()
	shipment, planErr := allocator.Plan(req.Order, warehouses)
	logger.Log.Debug("Allocation finished",
		zap.Int("order_lines", req.Order.Len()),
		zap.Int("warehouses", len(warehouses)),
		zap.Duration("duration", time.Since(start)),
	)

	result := &allocationResult{
		Shipment:       shipment,
		Fulfilled:      planErr == nil,
		WarehousesUsed: allocator.WarehousesUsed(shipment),
	}
	if planErr != nil {
		result.Reason = planErr.Error()
	}
	return result, nil
}

// writeOutput encodes v as indented JSON or YAML
func writeOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
