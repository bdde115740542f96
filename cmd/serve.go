package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sander-remitly/inventory-allocator/internal/cache"
	"github.com/sander-remitly/inventory-allocator/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the REST API server for allocations, warehouses and history.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	// Initialize logger
	logger.Initialize(logger.WithVerbose(verbose))
	defer logger.Sync()

	// Initialize repository
	repository, err := openRepository()
	if err != nil {
		logger.Log.Fatal("Failed to open database", zap.Error(err))
	}
	defer repository.Close()

	// Initialize default warehouses if none exist
	seeded, err := seedWarehouses(repository)
	if err != nil {
		logger.Log.Fatal("Failed to initialize warehouses", zap.Error(err))
	}
	if seeded {
		logger.Log.Info("Initialized default warehouses")
	}

	// Initialize cache
	cacheInstance := cache.NewCache()
	defer cacheInstance.Close()

	server := newAPIServer(repository, cacheInstance)

	// Start server in goroutine
	go func() {
		logger.Log.Info("🚀 API server starting",
			zap.String("url", fmt.Sprintf("http://localhost%s", server.Addr)),
			zap.String("health", fmt.Sprintf("http://localhost%s/api/health", server.Addr)),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server stopped")
}
