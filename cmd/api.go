package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sander-remitly/inventory-allocator/internal/api"
	"github.com/sander-remitly/inventory-allocator/internal/cache"
	"github.com/sander-remitly/inventory-allocator/internal/models"
	"github.com/sander-remitly/inventory-allocator/internal/repo"
)

// openRepository opens the database at dbPath, creating its directory
func openRepository() (*repo.Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repository, err := repo.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}
	return repository, nil
}

// seedWarehouses stores the first sample's warehouses when none exist yet
func seedWarehouses(repository *repo.Repository) (bool, error) {
	warehouses, err := repository.GetWarehouses()
	if err != nil {
		return false, fmt.Errorf("failed to get warehouses: %w", err)
	}
	if len(warehouses) > 0 {
		return false, nil
	}

	samples := models.GetSamples()
	if len(samples) == 0 {
		return false, nil
	}
	if err := repository.SetWarehouses(samples[0].Request.Warehouses); err != nil {
		return false, fmt.Errorf("failed to set default warehouses: %w", err)
	}
	return true, nil
}

// newAPIServer wires the repository and cache into an HTTP server
func newAPIServer(repository *repo.Repository, cacheInstance *cache.Cache) *http.Server {
	handler := api.NewHandler(repository, cacheInstance)
	router := handler.SetupRouter()

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
