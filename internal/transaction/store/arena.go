// Package store keeps verification transactions in memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"spverifier/internal/transaction/models"
	"spverifier/pkg/platform/sentinel"
)

// ErrIndexDivergence means an index points at a slot holding a different
// transaction. Slots are never freed, so it cannot happen unless the arena
// itself is broken.
var ErrIndexDivergence = errors.New("transaction index diverged")

// Error Contract:
// - ErrNotFound when no transaction has the key
// - ErrInvalidState when a create would reuse an identifier
// - ErrIndexDivergence when an index points at the wrong slot
// - whatever a mutate callback returns, unchanged

// Arena owns every transaction. Records live in a slot slice; the two lookup
// indices map transaction id and endpoint to a slot, so they cannot point at
// a record the other index does not also reach. Transactions are retained
// for the life of the process.
type Arena struct {
	mu         sync.RWMutex
	slots      []models.Transaction
	byID       map[string]int
	byEndpoint map[string]int
}

func New() *Arena {
	return &Arena{
		byID:       make(map[string]int),
		byEndpoint: make(map[string]int),
	}
}

// Create stores tx. Both identifiers must be unused.
func (a *Arena) Create(_ context.Context, tx *models.Transaction) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, taken := a.byID[tx.TransactionID]; taken {
		return fmt.Errorf("transaction id already in use: %w", sentinel.ErrInvalidState)
	}
	if _, taken := a.byEndpoint[tx.Endpoint]; taken {
		return fmt.Errorf("endpoint already in use: %w", sentinel.ErrInvalidState)
	}

	slot := len(a.slots)
	a.slots = append(a.slots, *tx.Clone())
	a.byID[tx.TransactionID] = slot
	a.byEndpoint[tx.Endpoint] = slot
	return nil
}

// FindByEndpoint returns a copy of the transaction behind a callback endpoint.
func (a *Arena) FindByEndpoint(_ context.Context, endpoint string) (*models.Transaction, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	tx, err := a.byEndpointLocked(endpoint)
	if err != nil {
		return nil, err
	}
	return tx.Clone(), nil
}

// FindByID returns a copy of the transaction with the given transaction id.
func (a *Arena) FindByID(_ context.Context, transactionID string) (*models.Transaction, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	slot, ok := a.byID[transactionID]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, sentinel.ErrNotFound)
	}
	if slot >= len(a.slots) || a.slots[slot].TransactionID != transactionID {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, ErrIndexDivergence)
	}
	return a.slots[slot].Clone(), nil
}

// Execute runs mutate on the transaction behind endpoint under the write
// lock. The change is kept only when mutate returns nil; the stored result is
// returned as a copy.
func (a *Arena) Execute(_ context.Context, endpoint string, mutate func(*models.Transaction) error) (*models.Transaction, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	current, err := a.byEndpointLocked(endpoint)
	if err != nil {
		return nil, err
	}
	working := current.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	// Identifiers are bound at creation.
	working.TransactionID = current.TransactionID
	working.Endpoint = current.Endpoint
	working.RequestID = current.RequestID
	*current = *working
	return current.Clone(), nil
}

// Len is the number of transactions ever created.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.slots)
}

func (a *Arena) byEndpointLocked(endpoint string) (*models.Transaction, error) {
	slot, ok := a.byEndpoint[endpoint]
	if !ok {
		return nil, fmt.Errorf("endpoint %s: %w", endpoint, sentinel.ErrNotFound)
	}
	if slot >= len(a.slots) || a.slots[slot].Endpoint != endpoint {
		return nil, fmt.Errorf("endpoint %s: %w", endpoint, ErrIndexDivergence)
	}
	return &a.slots[slot], nil
}
