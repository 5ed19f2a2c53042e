package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Balances raw token balances of accounts captured by one snapshot.
// Iteration follows insertion order of tokens and, per token, of accounts.
type Balances struct {
	tokens   []Token
	accounts map[common.Address][]Account
	values   map[common.Address]map[common.Address]*big.Int
	frozen   bool
}

// NewBalances creates an empty store.
func NewBalances() *Balances {
	return &Balances{
		accounts: make(map[common.Address][]Account),
		values:   make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Set records the raw balance of account for token. Last write wins.
// Panics once the store is frozen: published snapshots are immutable.
func (b *Balances) Set(token Token, account Account, value *big.Int) {
	if b.frozen {
		panic("balances: set on a published snapshot")
	}

	byAccount, ok := b.values[token.Address]
	if !ok {
		byAccount = make(map[common.Address]*big.Int)
		b.values[token.Address] = byAccount
		b.tokens = append(b.tokens, token)
	}
	if _, ok := byAccount[account.Address]; !ok {
		b.accounts[token.Address] = append(b.accounts[token.Address], account)
	}

	v := new(big.Int)
	if value != nil {
		v.Set(value)
	}
	byAccount[account.Address] = v
}

// Get returns a copy of the raw balance of account for token.
func (b *Balances) Get(token Token, account Account) (*big.Int, error) {
	v, ok := b.values[token.Address][account.Address]
	if !ok {
		return nil, &LookupError{Token: token.Address, Account: account.Address}
	}
	return new(big.Int).Set(v), nil
}

// Has reports whether a balance was recorded for the pair.
func (b *Balances) Has(token Token, account Account) bool {
	_, ok := b.values[token.Address][account.Address]
	return ok
}

// Len returns the number of recorded (token, account) pairs.
func (b *Balances) Len() int {
	n := 0
	for _, byAccount := range b.values {
		n += len(byAccount)
	}
	return n
}

// Tokens returns tokens in insertion order.
func (b *Balances) Tokens() []Token {
	return append([]Token(nil), b.tokens...)
}

// Accounts returns accounts recorded for token in insertion order.
func (b *Balances) Accounts(token Token) []Account {
	return append([]Account(nil), b.accounts[token.Address]...)
}

// Each calls fn for every pair in insertion order until fn returns false.
func (b *Balances) Each(fn func(token Token, account Account, value *big.Int) bool) {
	for _, token := range b.tokens {
		for _, account := range b.accounts[token.Address] {
			v := b.values[token.Address][account.Address]
			if !fn(token, account, new(big.Int).Set(v)) {
				return
			}
		}
	}
}

// Freeze makes the store read-only.
func (b *Balances) Freeze() {
	b.frozen = true
}

// Frozen reports whether the store was published.
func (b *Balances) Frozen() bool {
	return b.frozen
}
