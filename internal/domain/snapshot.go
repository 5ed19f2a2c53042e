package domain

import (
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Snapshot balances of every tracked pair at one point in time.
type Snapshot struct {
	ID uuid.UUID
	// Seq 1-based position in the snapshot history.
	Seq      uint64
	Name     string
	TakenAt  time.Time
	Balances *Balances
}

// DiffRow signed balance change of one pair between two snapshots.
type DiffRow struct {
	Token    Token
	Symbol   string
	Decimals uint8
	Account  Account
	Delta    *big.Int
}

// Diff non-zero changes between two snapshots.
type Diff struct {
	Before *Snapshot
	After  *Snapshot
	Rows   []DiffRow
}

// Empty reports whether nothing changed at display precision.
func (d Diff) Empty() bool {
	return len(d.Rows) == 0
}
