package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sander-remitly/inventory-allocator/internal/allocator"
	"github.com/sander-remitly/inventory-allocator/internal/cache"
	"github.com/sander-remitly/inventory-allocator/internal/logger"
	"github.com/sander-remitly/inventory-allocator/internal/models"
	"github.com/sander-remitly/inventory-allocator/internal/repo"
	"go.uber.org/zap"
)

// Handler handles HTTP requests
type Handler struct {
	repo      *repo.Repository
	cache     *cache.Cache
	startTime time.Time
}

// NewHandler creates a new API handler
func NewHandler(repository *repo.Repository, cacheInstance *cache.Cache) *Handler {
	return &Handler{
		repo:      repository,
		cache:     cacheInstance,
		startTime: time.Now(),
	}
}

// SetupRouter configures the Chi router with all routes
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/allocate", h.HandleAllocate)
		r.Get("/samples", h.HandleSamples)
		r.Get("/history", h.HandleHistory)
		r.Post("/history/clear", h.HandleClearHistory)
		r.Get("/health", h.HandleHealth)
		r.Get("/warehouses", h.HandleGetWarehouses)
		r.Post("/warehouses", h.HandleUpdateWarehouses)

		// Cache endpoints
		r.Get("/cache/stats", h.HandleCacheStats)
		r.Post("/cache/clear", h.HandleCacheClear)
	})

	return r
}

// HandleAllocate handles allocation requests
func (h *Handler) HandleAllocate(w http.ResponseWriter, r *http.Request) {
	var req models.AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Order == nil {
		respondError(w, http.StatusBadRequest, "Order is required", nil)
		return
	}

	// Use provided warehouses or the stored list
	warehouses := req.Warehouses
	if warehouses == nil {
		var err error
		warehouses, err = h.repo.GetWarehouses()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to get warehouses", err)
			return
		}
	}

	if err := allocator.ValidateWarehouses(warehouses); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid warehouses", err)
		return
	}

	// Try to get from cache first
	if cached, found := h.cache.Get(req.Order, warehouses); found {
		logger.Log.Info("Cache HIT",
			zap.Int("order_lines", req.Order.Len()),
			zap.Int("warehouses", len(warehouses)),
			zap.Int("hit_count", cached.HitCount),
			zap.Duration("ttl", cached.CurrentTTL),
		)

		response := models.AllocateResponse{
			Shipment:          cached.Shipment,
			Fulfilled:         cached.Fulfilled,
			Reason:            cached.Reason,
			WarehousesUsed:    cached.WarehousesUsed,
			CalculationTimeMs: cached.CalculationTimeMs,
			Cached:            true,
			CacheTTL:          cached.CurrentTTL.String(),
			CacheHitCount:     cached.HitCount,
		}

		respondJSON(w, http.StatusOK, response)
		return
	}

	logger.Log.Info("Cache MISS",
		zap.Int("order_lines", req.Order.Len()),
		zap.Int("warehouses", len(warehouses)),
	)

	// Allocate
	start := time.Now()
	shipment, planErr := allocator.Plan(req.Order, warehouses)
	duration := time.Since(start)

	reason := ""
	if planErr != nil {
		reason = planErr.Error()
		logger.Log.Info("Order rejected", zap.String("reason", reason))
	}

	// Save to cache
	if err := h.cache.Set(req.Order, warehouses, shipment, reason, duration.Milliseconds()); err != nil {
		logger.Log.Warn("Failed to cache result", zap.Error(err))
	}

	// Save to history
	id, err := h.repo.SaveAllocation(req.Order, shipment, planErr == nil, reason)
	if err != nil {
		logger.Log.Warn("Failed to save allocation", zap.Error(err))
		// Don't fail the request, just log
	}

	response := models.AllocateResponse{
		ID:                id,
		Shipment:          shipment,
		Fulfilled:         planErr == nil,
		Reason:            reason,
		WarehousesUsed:    allocator.WarehousesUsed(shipment),
		CalculationTimeMs: duration.Milliseconds(),
		Cached:            false,
	}

	respondJSON(w, http.StatusOK, response)
}

// HandleSamples returns canned allocation requests
func (h *Handler) HandleSamples(w http.ResponseWriter, r *http.Request) {
	response := models.SamplesResponse{
		Samples: models.GetSamples(),
	}
	respondJSON(w, http.StatusOK, response)
}

// HandleHistory returns allocation history
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.repo.GetHistory(20)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get history", err)
		return
	}

	if history == nil {
		history = []models.HistoryEntry{}
	}

	response := models.HistoryResponse{
		History: history,
		Count:   len(history),
	}
	respondJSON(w, http.StatusOK, response)
}

// HandleClearHistory clears all allocation history
func (h *Handler) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.ClearHistory(); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to clear history", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "History cleared"})
}

// HandleHealth returns service health status
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if err := h.repo.Ping(); err != nil {
		dbStatus = "disconnected"
	}

	uptime := time.Since(h.startTime).Round(time.Second).String()

	response := models.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  dbStatus,
		Uptime:    uptime,
	}

	respondJSON(w, http.StatusOK, response)
}

// HandleGetWarehouses returns the stored warehouse list
func (h *Handler) HandleGetWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.repo.GetWarehouses()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get warehouses", err)
		return
	}

	response := models.WarehouseConfig{
		Warehouses: warehouses,
		UpdatedAt:  time.Now(),
	}

	respondJSON(w, http.StatusOK, response)
}

// HandleUpdateWarehouses replaces the stored warehouse list
func (h *Handler) HandleUpdateWarehouses(w http.ResponseWriter, r *http.Request) {
	var req models.WarehouseUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := allocator.ValidateWarehouses(req.Warehouses); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid warehouses", err)
		return
	}

	if err := h.repo.SetWarehouses(req.Warehouses); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update warehouses", err)
		return
	}

	if req.Warehouses == nil {
		req.Warehouses = []allocator.Warehouse{}
	}

	response := models.WarehouseUpdateResponse{
		Warehouses: req.Warehouses,
		UpdatedAt:  time.Now(),
		Message:    "Warehouses updated successfully",
	}

	respondJSON(w, http.StatusOK, response)
}

// HandleCacheStats returns cache statistics
func (h *Handler) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cache.GetStats()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get cache stats", err)
		return
	}

	response := models.CacheStatsResponse{
		Enabled:    h.cache.IsEnabled(),
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		HitRate:    stats.HitRate,
		TotalKeys:  stats.TotalKeys,
		MemoryUsed: stats.MemoryUsed,
		Uptime:     stats.Uptime,
	}

	respondJSON(w, http.StatusOK, response)
}

// HandleCacheClear clears all cache entries
func (h *Handler) HandleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to clear cache", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Cache cleared successfully"})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.Error("Error encoding JSON response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		logger.Log.Error("Request error",
			zap.String("message", message),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	response := models.ErrorResponse{
		Error: message,
		Code:  status,
	}

	if err != nil {
		response.Message = err.Error()
	}

	respondJSON(w, status, response)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
