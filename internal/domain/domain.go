// Package domain defines the entities of the inventory consistency engine:
// warehouses, the box forest, items, stock movements, the change log and
// the sync-protocol bookkeeping records. Types here are persistence-agnostic;
// internal/store maps them to SQLite rows.
package domain

import "time"

// User is created by signup. Soft deletion is out of scope; users are never destroyed.
type User struct {
	ID           string
	Email        string // unique, lower-cased
	PasswordHash string
	DisplayName  string // optional, empty string means unset
	CreatedAt    time.Time
}

// Warehouse is the tenancy key: it owns boxes, items, the change log, conflicts,
// invites, settings and activity.
type Warehouse struct {
	ID        string
	Name      string
	CreatedBy string // User.ID
	CreatedAt time.Time
}

// Membership is a (user, warehouse) pair; presence grants access to the warehouse.
type Membership struct {
	UserID      string
	WarehouseID string
	CreatedAt   time.Time
}

// Box is a node in a warehouse's box forest. Parent must be nil or an existing,
// same-warehouse box; transitive parents must never form a cycle (depth <= 128).
type Box struct {
	ID               string
	WarehouseID      string
	ParentBoxID      string // empty means root
	Name             string
	Description      string
	PhysicalLocation string
	QRToken          string // globally unique
	ShortCode        string // "BX-HHHHHH", low-collision, not unique
	Version          int
	CreatedAt        time.Time
	DeletedAt        *time.Time
}

// Live reports whether the box has not been soft-deleted.
func (b Box) Live() bool { return b.DeletedAt == nil }

// Item is pinned to exactly one box in the same warehouse.
type Item struct {
	ID               string
	WarehouseID      string
	BoxID            string
	Name             string
	Description      string
	PhotoURL         string
	PhysicalLocation string
	Tags             []string // ordered, unique
	Aliases          []string // ordered, unique
	Version          int
	CreatedAt        time.Time
	DeletedAt        *time.Time
}

// Live reports whether the item has not been soft-deleted.
func (i Item) Live() bool { return i.DeletedAt == nil }

// ItemFavorite is a per-user weak reference to an item; deleting the item
// does not delete the favorite, but favorites are filtered to live items on read.
type ItemFavorite struct {
	UserID    string
	ItemID    string
	CreatedAt time.Time
}

// StockMovement is an append-only per-item delta. (ItemID, CommandID) is unique:
// two movements sharing a command id for the same item never both exist.
type StockMovement struct {
	ID          string
	WarehouseID string
	ItemID      string
	Delta       int // -1 or +1
	CommandID   string
	Note        string
	CreatedAt   time.Time
}

// ChangeLogAction enumerates the operations recorded in the change log.
type ChangeLogAction string

const (
	ActionCreate      ChangeLogAction = "create"
	ActionUpdate      ChangeLogAction = "update"
	ActionMove        ChangeLogAction = "move"
	ActionDelete      ChangeLogAction = "delete"
	ActionRestore     ChangeLogAction = "restore"
	ActionFavorite    ChangeLogAction = "favorite"
	ActionUnfavorite  ChangeLogAction = "unfavorite"
	ActionStockAdjust ChangeLogAction = "stock_adjust"
	ActionResolve     ChangeLogAction = "resolve"
	ActionImport      ChangeLogAction = "import"
)

// ChangeLogEntry is an ordered, warehouse-scoped replay record. Seq is a
// single global autoincrement; readers must filter and order by
// (warehouse_id, seq) — no cross-warehouse ordering is exposed.
type ChangeLogEntry struct {
	Seq           int64
	WarehouseID   string
	EntityType    string
	EntityID      string
	Action        ChangeLogAction
	EntityVersion *int
	Payload       map[string]any
	CreatedAt     time.Time
}

// ProcessedCommand is the at-most-once ledger for sync pushes.
type ProcessedCommand struct {
	CommandID   string // global PK
	WarehouseID string
	UserID      string
	DeviceID    string
	ProcessedAt time.Time
	ResultHash  string
}

// ConflictStatus is the lifecycle state of a SyncConflict.
type ConflictStatus string

const (
	ConflictOpen     ConflictStatus = "open"
	ConflictResolved ConflictStatus = "resolved"
)

// SyncConflict is created when optimistic concurrency fails during push.
type SyncConflict struct {
	ID            string
	WarehouseID   string
	CommandID     string // unique
	EntityType    string // "box" | "item"
	EntityID      string
	BaseVersion   *int
	ServerVersion *int
	ClientPayload map[string]any
	Status        ConflictStatus
	CreatedBy     string
	CreatedAt     time.Time
	ResolvedAt    *time.Time
	ResolvedBy    string
}

// Invite grants warehouse membership to an email address once accepted.
type Invite struct {
	ID          string
	WarehouseID string
	Email       string
	TokenHash   string
	InvitedBy   string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	AcceptedAt  *time.Time
}

// ActivityEvent is a fire-and-forget audit record; failures to write never
// abort the triggering operation (spec.md §1, out-of-scope sink).
type ActivityEvent struct {
	ID          string
	WarehouseID string
	ActorID     string
	Verb        string
	EntityType  string
	EntityID    string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// SMTPSetting stores an encrypted outbound-mail credential. Payload is opaque
// to the core except for masking on read (internal/secretcrypt).
type SMTPSetting struct {
	WarehouseID    string
	Host           string
	Port           int
	Username       string
	EncryptedPass  []byte
	CreatedAt      time.Time
}

// LLMSetting stores an encrypted third-party API key. Payload is opaque to
// the core except for masking on read.
type LLMSetting struct {
	WarehouseID  string
	Provider     string
	EncryptedKey []byte
	CreatedAt    time.Time
}

// RefreshToken is persisted only as a SHA-256 hex digest (spec.md §6).
type RefreshToken struct {
	JTI       string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// PasswordResetToken is persisted only as a SHA-256 hex digest.
type PasswordResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
