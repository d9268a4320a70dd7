package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"stakevault/crypto"
	"stakevault/native/staking"
	"stakevault/storage"
)

const positionPrefix = "staking/position/"

// positionRecord is the stored wire form of a staking.Position. Amounts are
// decimal strings so the encoding is stable across big.Int internals.
type positionRecord struct {
	StakedAmount     string `json:"stakedAmount"`
	UnclaimedRewards string `json:"unclaimedRewards"`
	LastUpdateTime   uint64 `json:"lastUpdateTime"`
}

// Manager persists staking positions in a key-value store and doubles as the
// operator pause switch consulted by the engine.
type Manager struct {
	mu     sync.RWMutex
	db     storage.Database
	paused map[string]bool
}

// NewManager wraps the database. The paused set starts empty; callers feed it
// from config via SetPaused.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, paused: make(map[string]bool)}
}

// SetPaused toggles the administrative pause for a module name.
func (m *Manager) SetPaused(module string, paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused[module] = paused
}

// IsPaused implements the pause view consumed by native engines.
func (m *Manager) IsPaused(module string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused[module]
}

func positionKey(addr crypto.Address) []byte {
	return []byte(positionPrefix + string(addr.Bytes()))
}

// GetPosition loads the stored position for an address. A missing record
// returns nil so the engine materialises a zero position lazily.
func (m *Manager) GetPosition(addr crypto.Address) (*staking.Position, error) {
	raw, err := m.db.Get(positionKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec positionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("state: corrupt staking position: %w", err)
	}
	staked, ok := new(big.Int).SetString(rec.StakedAmount, 10)
	if !ok {
		return nil, fmt.Errorf("state: corrupt staked amount %q", rec.StakedAmount)
	}
	unclaimed, ok := new(big.Int).SetString(rec.UnclaimedRewards, 10)
	if !ok {
		return nil, fmt.Errorf("state: corrupt unclaimed rewards %q", rec.UnclaimedRewards)
	}
	return &staking.Position{
		Address:          addr,
		StakedAmount:     staked,
		UnclaimedRewards: unclaimed,
		LastUpdateTime:   rec.LastUpdateTime,
	}, nil
}

// PutPosition stores the position under its address key.
func (m *Manager) PutPosition(pos *staking.Position) error {
	if pos == nil {
		return errors.New("state: nil staking position")
	}
	rec := positionRecord{
		StakedAmount:     "0",
		UnclaimedRewards: "0",
		LastUpdateTime:   pos.LastUpdateTime,
	}
	if pos.StakedAmount != nil {
		rec.StakedAmount = pos.StakedAmount.String()
	}
	if pos.UnclaimedRewards != nil {
		rec.UnclaimedRewards = pos.UnclaimedRewards.String()
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return m.db.Put(positionKey(pos.Address), raw)
}
