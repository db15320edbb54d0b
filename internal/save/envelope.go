// Package save persists run documents. A save is a small envelope around the
// run's own JSON document carrying a format tag, a blake3 checksum of the
// run bytes and the time it was written. Stores hold envelopes by slot name.
package save

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/blake3"
)

// Format tags the envelope layout.
const Format = "rogue-emblem/save@1"

var (
	// ErrNoSavedRun means the slot is empty or holds nothing readable.
	ErrNoSavedRun = errors.New("save: no saved run")
	// ErrChecksumMismatch means the run bytes do not match the envelope.
	ErrChecksumMismatch = errors.New("save: checksum mismatch")
)

// Envelope wraps one run document.
type Envelope struct {
	Format   string          `json:"format"`
	Checksum string          `json:"checksum"`
	SavedAt  time.Time       `json:"savedAt"`
	Run      json.RawMessage `json:"run"`
}

// Checksum returns the tagged blake3 digest of data.
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return "blake3:" + hex.EncodeToString(sum[:])
}

// Seal wraps a run document in an envelope.
func Seal(run []byte, savedAt time.Time) ([]byte, Envelope, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, run); err != nil {
		return nil, Envelope{}, fmt.Errorf("save: run document is not JSON: %w", err)
	}
	env := Envelope{
		Format:   Format,
		Checksum: Checksum(compact.Bytes()),
		SavedAt:  savedAt.UTC(),
		Run:      compact.Bytes(),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, Envelope{}, fmt.Errorf("save: encode envelope: %w", err)
	}
	return data, env, nil
}

// Open returns the run document inside data. A bare JSON object without an
// envelope is an earlier build's save and is returned as is with legacy set.
func Open(data []byte) (run []byte, legacy bool, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false, ErrNoSavedRun
	}
	var env Envelope
	if json.Unmarshal(trimmed, &env) == nil && env.Format == Format {
		if Checksum(env.Run) != env.Checksum {
			return nil, false, ErrChecksumMismatch
		}
		return env.Run, false, nil
	}
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, false, fmt.Errorf("%w: unreadable document", ErrNoSavedRun)
	}
	return trimmed, true, nil
}
