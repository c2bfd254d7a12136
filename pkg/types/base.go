package types

import "time"

// Base is a named collection of tables.
type Base struct {
	BaseID    string    `json:"base_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Table is a typed grid inside a base. Order is the table's position among
// its siblings.
type Table struct {
	TableID   string    `json:"table_id"`
	BaseID    string    `json:"base_id"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}
