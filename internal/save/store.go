package save

import (
	"context"
	"fmt"
	"regexp"
)

// Store holds sealed envelopes by slot.
type Store interface {
	// Load returns ErrNoSavedRun when the slot is empty.
	Load(ctx context.Context, slot string) ([]byte, error)
	Save(ctx context.Context, slot string, data []byte) error
	// Delete succeeds on an empty slot.
	Delete(ctx context.Context, slot string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Mirror receives a copy of every persisted envelope. Implementations must
// not block the caller.
type Mirror interface {
	Mirror(slot string, data []byte)
}

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidSlot reports whether slot is usable as a store key.
func ValidSlot(slot string) bool {
	return slotPattern.MatchString(slot)
}

func checkSlot(slot string) error {
	if !ValidSlot(slot) {
		return fmt.Errorf("save: invalid slot %q", slot)
	}
	return nil
}
