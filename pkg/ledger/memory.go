package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
)

// Memory is an in-memory ledger used in tests and throwaway deployments.
type Memory struct {
	mu        sync.RWMutex
	signer    models.Address
	guardians map[models.Address]models.Guardian
	// allowances keyed by token then spender.
	allowances map[models.Address]map[models.Address]string
	// approvals keyed by standard, collection, operator.
	approvals map[opKey]bool
}

type opKey struct {
	std        Standard
	collection models.Address
	operator   models.Address
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		guardians:  make(map[models.Address]models.Guardian),
		allowances: make(map[models.Address]map[models.Address]string),
		approvals:  make(map[opKey]bool),
	}
}

// Begin starts a unit of work. Writes are staged and only land on Commit.
func (l *Memory) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memoryTx{ledger: l}, nil
}

func (l *Memory) Signer(ctx context.Context) (models.Address, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.signer, nil
}

func (l *Memory) IsGuardian(ctx context.Context, addr models.Address) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, ok := l.guardians[addr]
	return ok && g.Active, nil
}

func (l *Memory) ListGuardians(ctx context.Context) ([]models.Guardian, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	guardians := make([]models.Guardian, 0, len(l.guardians))
	for _, g := range l.guardians {
		guardians = append(guardians, g)
	}
	sort.Slice(guardians, func(i, j int) bool {
		return guardians[i].Address < guardians[j].Address
	})
	return guardians, nil
}

func (l *Memory) Allowance(ctx context.Context, token, spender models.Address) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if spenders, ok := l.allowances[token]; ok {
		if amount, ok := spenders[spender]; ok {
			return amount, nil
		}
	}
	return "0", nil
}

func (l *Memory) IsOperatorApproved(ctx context.Context, std Standard, collection, operator models.Address) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.approvals[opKey{std, collection, operator}], nil
}

func (l *Memory) SetGuardian(ctx context.Context, addr models.Address, active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.guardians[addr] = models.Guardian{Address: addr, Active: active, UpdatedAt: time.Now().UTC()}
	return nil
}

func (l *Memory) Approve(ctx context.Context, token, spender models.Address, amount string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[token] == nil {
		l.allowances[token] = make(map[models.Address]string)
	}
	l.allowances[token][spender] = amount
	return nil
}

func (l *Memory) SetOperatorApproval(ctx context.Context, std Standard, collection, operator models.Address, approved bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.approvals[opKey{std, collection, operator}] = approved
	return nil
}

func (l *Memory) Close() error {
	return nil
}

// memoryTx stages writes as closures and applies them under the ledger
// lock on Commit, so a batch lands in full or not at all.
type memoryTx struct {
	ledger *Memory
	ops    []func(*Memory)
	done   bool
}

var errTxDone = errors.New("transaction already finished")

func (t *memoryTx) SetSigner(addr models.Address) error {
	if t.done {
		return errTxDone
	}
	t.ops = append(t.ops, func(l *Memory) {
		l.signer = addr
	})
	return nil
}

func (t *memoryTx) ClearAllowance(token, spender models.Address) error {
	if t.done {
		return errTxDone
	}
	t.ops = append(t.ops, func(l *Memory) {
		if spenders, ok := l.allowances[token]; ok {
			if _, ok := spenders[spender]; ok {
				spenders[spender] = "0"
			}
		}
	})
	return nil
}

func (t *memoryTx) ClearOperatorApproval(std Standard, collection, operator models.Address) error {
	if t.done {
		return errTxDone
	}
	t.ops = append(t.ops, func(l *Memory) {
		key := opKey{std, collection, operator}
		if _, ok := l.approvals[key]; ok {
			l.approvals[key] = false
		}
	})
	return nil
}

func (t *memoryTx) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true

	t.ledger.mu.Lock()
	defer t.ledger.mu.Unlock()
	for _, op := range t.ops {
		op(t.ledger)
	}
	t.ops = nil
	return nil
}

func (t *memoryTx) Rollback() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.ops = nil
	return nil
}
