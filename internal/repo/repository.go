package repo

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sander-remitly/inventory-allocator/internal/allocator"
	"github.com/sander-remitly/inventory-allocator/internal/logger"
	"github.com/sander-remitly/inventory-allocator/internal/models"
	"go.uber.org/zap"
)

// Repository handles data persistence
type Repository struct {
	db *sql.DB
}

// New creates a new repository instance
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return repo, nil
}

// initialize creates the database schema
func (r *Repository) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS warehouses (
		position INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		inventory TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		order_lines TEXT NOT NULL,
		shipment TEXT NOT NULL,
		fulfilled INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		warehouses_used INTEGER NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_timestamp ON allocations(timestamp DESC);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// GetWarehouses retrieves the stored warehouses in preference order
func (r *Repository) GetWarehouses() ([]allocator.Warehouse, error) {
	rows, err := r.db.Query("SELECT name, inventory FROM warehouses ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	warehouses := []allocator.Warehouse{}
	for rows.Next() {
		var name, inventoryJSON string
		if err := rows.Scan(&name, &inventoryJSON); err != nil {
			return nil, err
		}

		inventory := allocator.NewInventory()
		if err := json.Unmarshal([]byte(inventoryJSON), inventory); err != nil {
			return nil, fmt.Errorf("failed to decode inventory of %q: %w", name, err)
		}

		warehouses = append(warehouses, allocator.Warehouse{Name: name, Inventory: inventory})
	}

	return warehouses, rows.Err()
}

// SetWarehouses replaces the stored warehouses, keeping their order
func (r *Repository) SetWarehouses(warehouses []allocator.Warehouse) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Clear existing warehouses
	if _, err := tx.Exec("DELETE FROM warehouses"); err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO warehouses (position, name, inventory) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, w := range warehouses {
		inventory := w.Inventory
		if inventory == nil {
			inventory = allocator.NewInventory()
		}
		inventoryJSON, err := json.Marshal(inventory)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(i, w.Name, string(inventoryJSON)); err != nil {
			return fmt.Errorf("failed to store warehouse %q: %w", w.Name, err)
		}
	}

	return tx.Commit()
}

// SaveAllocation saves an allocation to the history and returns its ID
func (r *Repository) SaveAllocation(
	order *allocator.Order,
	shipment []allocator.Parcel,
	fulfilled bool,
	reason string,
) (string, error) {
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return "", err
	}

	if shipment == nil {
		shipment = []allocator.Parcel{}
	}
	shipmentJSON, err := json.Marshal(shipment)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	query := `
		INSERT INTO allocations (id, order_lines, shipment, fulfilled, reason, warehouses_used)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, string(orderJSON), string(shipmentJSON), fulfilled, reason, allocator.WarehousesUsed(shipment))
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetHistory retrieves the allocation history, newest first
func (r *Repository) GetHistory(limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, order_lines, shipment, fulfilled, reason, warehouses_used, timestamp
		FROM allocations
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		var orderJSON, shipmentJSON string

		err := rows.Scan(
			&entry.ID,
			&orderJSON,
			&shipmentJSON,
			&entry.Fulfilled,
			&entry.Reason,
			&entry.WarehousesUsed,
			&entry.Timestamp,
		)
		if err != nil {
			logger.Log.Warn("Error scanning row", zap.Error(err))
			continue
		}

		entry.Order = allocator.NewOrder()
		if err := json.Unmarshal([]byte(orderJSON), entry.Order); err != nil {
			logger.Log.Warn("Error unmarshaling order", zap.String("id", entry.ID), zap.Error(err))
			continue
		}

		if err := json.Unmarshal([]byte(shipmentJSON), &entry.Shipment); err != nil {
			logger.Log.Warn("Error unmarshaling shipment", zap.String("id", entry.ID), zap.Error(err))
			continue
		}

		history = append(history, entry)
	}

	return history, nil
}

// ClearHistory clears all allocation history
func (r *Repository) ClearHistory() error {
	_, err := r.db.Exec("DELETE FROM allocations")
	return err
}

// GetStats returns statistics about the database
func (r *Repository) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var count, fulfilled int
	err := r.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(fulfilled), 0) FROM allocations").Scan(&count, &fulfilled)
	if err != nil {
		return nil, err
	}
	stats["total_allocations"] = count
	stats["fulfilled_allocations"] = fulfilled

	var warehouseCount int
	err = r.db.QueryRow("SELECT COUNT(*) FROM warehouses").Scan(&warehouseCount)
	if err != nil {
		return nil, err
	}
	stats["warehouses_count"] = warehouseCount

	// Get latest allocation time
	var latest sql.NullString
	err = r.db.QueryRow("SELECT MAX(timestamp) FROM allocations").Scan(&latest)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if latest.Valid {
		for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano} {
			if t, err := time.Parse(layout, latest.String); err == nil {
				stats["latest_allocation"] = t
				break
			}
		}
	}

	return stats, nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping() error {
	return r.db.Ping()
}
