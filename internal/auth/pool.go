package auth

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"stocksage/internal/model"
	"stocksage/internal/repository"

	"github.com/google/uuid"
)

const (
	// Guests untouched for this long are eligible for reuse.
	guestIdleAfter = time.Hour
	// How many reuse candidates to fetch per acquisition.
	guestScanLimit = 20
)

// GuestPool bounds the number of guest accounts by reusing idle ones and
// evicting the least-recently-accessed rows once the cap is exceeded. Both
// sides are best-effort: a failed eviction is logged, never fatal.
type GuestPool struct {
	users   repository.UserRepository
	maxSize int
}

func NewGuestPool(users repository.UserRepository, maxSize int) *GuestPool {
	if maxSize <= 0 {
		maxSize = 500
	}
	return &GuestPool{users: users, maxSize: maxSize}
}

// Acquire returns a guest user record, preferring a random idle account over
// minting a new one. The returned record always exists in storage.
func (p *GuestPool) Acquire(ctx context.Context) (*model.User, error) {
	candidates, err := p.users.FindIdleGuests(ctx, time.Now().Add(-guestIdleAfter), guestScanLimit)
	if err != nil {
		log.Printf("guest pool: idle lookup failed, minting instead: %v", err)
	} else if len(candidates) > 0 {
		reused := candidates[rand.Intn(len(candidates))]
		if err := p.users.Touch(ctx, reused.ID); err != nil {
			log.Printf("guest pool: failed to touch reused guest %s: %v", reused.ID, err)
		}
		return &reused, nil
	}

	guest := p.newGuestRecord()
	if err := p.users.Create(ctx, guest); err != nil {
		return nil, fmt.Errorf("failed to create guest account: %w", err)
	}

	p.evictOverflow(ctx)
	return guest, nil
}

func (p *GuestPool) newGuestRecord() *model.User {
	id := model.GuestIDPrefix + uuid.NewString()
	return &model.User{
		ID:    id,
		Name:  "Guest",
		Email: id + "@guest.local",
		Role:  model.RoleGuest,
	}
}

// evictOverflow trims the pool back under maxSize, oldest access first.
func (p *GuestPool) evictOverflow(ctx context.Context) {
	count, err := p.users.CountGuests(ctx)
	if err != nil {
		log.Printf("guest pool: count failed, skipping eviction: %v", err)
		return
	}
	excess := int(count) - p.maxSize
	if excess <= 0 {
		return
	}

	stale, err := p.users.FindOldestGuests(ctx, excess)
	if err != nil {
		log.Printf("guest pool: eviction candidate lookup failed: %v", err)
		return
	}
	ids := make([]string, 0, len(stale))
	for _, u := range stale {
		ids = append(ids, u.ID)
	}
	if err := p.users.DeleteByIDs(ctx, ids); err != nil {
		log.Printf("guest pool: eviction failed for %d accounts: %v", len(ids), err)
	}
}
