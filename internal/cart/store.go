package cart

import (
	"context"
	"sync"
)

// Store holds the live session carts. Implementations must return copies from
// GetCart so callers cannot mutate stored state behind the store's back.
type Store interface {
	GetCart(ctx context.Context, sessionID string) (*Cart, error)
	SetBusiness(ctx context.Context, sessionID, businessID, businessName string) error
	AddItem(ctx context.Context, sessionID string, item LineItem) error
	SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error
	RemoveItem(ctx context.Context, sessionID string, productID int64) error
	ClearCategory(ctx context.Context, sessionID, category string) error
	ClearRequirement(ctx context.Context, sessionID, requirement, category string) error
}

// MemoryStore keeps carts in process memory, one per session.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]*Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]*Cart)}
}

func (s *MemoryStore) GetCart(ctx context.Context, sessionID string) (*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.carts[sessionID]; ok {
		return c.Clone(), nil
	}
	return &Cart{}, nil
}

func (s *MemoryStore) SetBusiness(ctx context.Context, sessionID, businessID, businessName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cart(sessionID)
	c.BusinessID = businessID
	c.BusinessName = businessName
	return nil
}

func (s *MemoryStore) AddItem(ctx context.Context, sessionID string, item LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart(sessionID).Add(item)
	return nil
}

func (s *MemoryStore) SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart(sessionID).SetQuantity(productID, quantity)
	return nil
}

func (s *MemoryStore) RemoveItem(ctx context.Context, sessionID string, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart(sessionID).Remove(productID)
	return nil
}

func (s *MemoryStore) ClearCategory(ctx context.Context, sessionID, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart(sessionID).ClearCategory(category)
	return nil
}

func (s *MemoryStore) ClearRequirement(ctx context.Context, sessionID, requirement, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart(sessionID).ClearRequirement(requirement, category)
	return nil
}

// cart returns the session's cart, creating it on first use. Callers must hold
// the write lock.
func (s *MemoryStore) cart(sessionID string) *Cart {
	c, ok := s.carts[sessionID]
	if !ok {
		c = &Cart{}
		s.carts[sessionID] = c
	}
	return c
}
