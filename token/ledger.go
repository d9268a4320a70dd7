package token

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"stakevault/crypto"
	"stakevault/storage"
)

var (
	ErrInvalidAmount       = errors.New("token ledger: amount must be positive")
	ErrInsufficientBalance = errors.New("token ledger: insufficient balance")
	ErrInsufficientCustody = errors.New("token ledger: custody lacks amount")
)

// Ledger is the transfer surface a fungible token exposes to custodial
// modules. TransferIn moves value from an external holder into the ledger's
// custody account; TransferOut releases custody back to a holder.
type Ledger interface {
	TransferIn(from crypto.Address, amount *big.Int) error
	TransferOut(to crypto.Address, amount *big.Int) error
	BalanceOf(addr crypto.Address) (*big.Int, error)
}

// BookLedger is a book-entry fungible token ledger persisted in a key-value
// store. One instance manages one token denomination and one custody account.
type BookLedger struct {
	mu      sync.Mutex
	db      storage.Database
	symbol  string
	custody crypto.Address
}

// NewBookLedger opens the ledger for the given token symbol. The custody
// address receives all TransferIn value and funds all TransferOut payouts.
func NewBookLedger(db storage.Database, symbol string, custody crypto.Address) (*BookLedger, error) {
	trimmed := strings.TrimSpace(symbol)
	if trimmed == "" {
		return nil, fmt.Errorf("token ledger: symbol required")
	}
	if custody.IsZero() {
		return nil, fmt.Errorf("token ledger: custody address required")
	}
	return &BookLedger{db: db, symbol: trimmed, custody: custody}, nil
}

// Symbol returns the token denomination managed by this ledger.
func (l *BookLedger) Symbol() string { return l.symbol }

// Custody returns the custody account funded by TransferIn.
func (l *BookLedger) Custody() crypto.Address { return l.custody }

func (l *BookLedger) balanceKey(addr crypto.Address) []byte {
	return []byte("token/" + l.symbol + "/bal/" + string(addr.Bytes()))
}

func (l *BookLedger) supplyKey() []byte {
	return []byte("token/" + l.symbol + "/supply")
}

func (l *BookLedger) load(key []byte) (*big.Int, error) {
	raw, err := l.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

func (l *BookLedger) store(key []byte, v *big.Int) error {
	return l.db.Put(key, v.Bytes())
}

// TransferIn moves amount from the holder's balance into custody.
func (l *BookLedger) TransferIn(from crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	fromBal, err := l.load(l.balanceKey(from))
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	custodyBal, err := l.load(l.balanceKey(l.custody))
	if err != nil {
		return err
	}

	if err := l.store(l.balanceKey(from), new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return l.store(l.balanceKey(l.custody), new(big.Int).Add(custodyBal, amount))
}

// TransferOut releases amount from custody to the holder.
func (l *BookLedger) TransferOut(to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	custodyBal, err := l.load(l.balanceKey(l.custody))
	if err != nil {
		return err
	}
	if custodyBal.Cmp(amount) < 0 {
		return ErrInsufficientCustody
	}
	toBal, err := l.load(l.balanceKey(to))
	if err != nil {
		return err
	}

	if err := l.store(l.balanceKey(l.custody), new(big.Int).Sub(custodyBal, amount)); err != nil {
		return err
	}
	return l.store(l.balanceKey(to), new(big.Int).Add(toBal, amount))
}

// BalanceOf returns the holder's current book balance.
func (l *BookLedger) BalanceOf(addr crypto.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(l.balanceKey(addr))
}

// Mint credits newly issued tokens to the holder and grows total supply. It
// exists for genesis funding; the staking engine never mints.
func (l *BookLedger) Mint(to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, err := l.load(l.balanceKey(to))
	if err != nil {
		return err
	}
	supply, err := l.load(l.supplyKey())
	if err != nil {
		return err
	}
	if err := l.store(l.balanceKey(to), new(big.Int).Add(bal, amount)); err != nil {
		return err
	}
	return l.store(l.supplyKey(), new(big.Int).Add(supply, amount))
}

// TotalSupply returns the cumulative minted amount.
func (l *BookLedger) TotalSupply() (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(l.supplyKey())
}
