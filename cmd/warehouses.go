package cmd

import (
	"fmt"

	"github.com/sander-remitly/inventory-allocator/internal/allocator"
	"github.com/sander-remitly/inventory-allocator/internal/logger"
	"github.com/sander-remitly/inventory-allocator/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var warehousesFile string

// warehousesCmd groups the stored warehouse commands
var warehousesCmd = &cobra.Command{
	Use:   "warehouses",
	Short: "Manage the stored warehouse list",
}

var warehousesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the stored warehouses with the contents of a file",
	Long: `Replace the stored warehouses with a JSON or YAML file. The file holds
either a list of warehouses or a mapping with a "warehouses" key. List order
is the preference order used for allocation.`,
	RunE: runWarehousesImport,
}

var warehousesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the stored warehouses",
	RunE:  runWarehousesList,
}

func init() {
	warehousesImportCmd.Flags().StringVarP(&warehousesFile, "file", "f", "", "Warehouse file (JSON or YAML)")
	_ = warehousesImportCmd.MarkFlagRequired("file")
	warehousesListCmd.Flags().StringVarP(&outputFormat, "format", "o", "json", "Output format: json or yaml")

	warehousesCmd.AddCommand(warehousesImportCmd, warehousesListCmd)
	rootCmd.AddCommand(warehousesCmd)
}

func runWarehousesImport(cmd *cobra.Command, args []string) error {
	logger.Initialize(logger.WithVerbose(verbose))
	defer logger.Sync()

	warehouses, err := models.LoadWarehouses(warehousesFile)
	if err != nil {
		return err
	}
	if err := allocator.ValidateWarehouses(warehouses); err != nil {
		return err
	}

	repository, err := openRepository()
	if err != nil {
		return err
	}
	defer repository.Close()

	if err := repository.SetWarehouses(warehouses); err != nil {
		return fmt.Errorf("failed to store warehouses: %w", err)
	}

	logger.Log.Info("Warehouses imported",
		zap.String("file", warehousesFile),
		zap.Int("count", len(warehouses)),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d warehouses\n", len(warehouses))
	return nil
}

func runWarehousesList(cmd *cobra.Command, args []string) error {
	logger.Initialize(logger.WithVerbose(verbose))
	defer logger.Sync()

	repository, err := openRepository()
	if err != nil {
		return err
	}
	defer repository.Close()

	warehouses, err := repository.GetWarehouses()
	if err != nil {
		return fmt.Errorf("failed to get warehouses: %w", err)
	}

	return writeOutput(cmd.OutOrStdout(), outputFormat, models.WarehouseUpdateRequest{Warehouses: warehouses})
}
