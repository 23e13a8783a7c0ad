package repository

import (
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/flowdesk/internal/model"
)

const (
	transactionDateLayout = "01/02/2006"
	transactionTimeLayout = "15:04:05"
	systemLogLayout       = "01/02/2006 15:04:05"

	// DefaultSystemLogCap is how many system log lines are retained.
	DefaultSystemLogCap = 100
)

// TransactionRepo is the append-only audit trail of user actions.  Ids are
// assigned from a 1-based sequence ("T001").  Safe for concurrent use.
type TransactionRepo struct {
	mu    sync.RWMutex
	items []model.Transaction // oldest first
}

// NewTransactionRepo returns an empty trail.
func NewTransactionRepo() *TransactionRepo { return &TransactionRepo{} }

// Append records a transaction stamped with at and returns it.
func (r *TransactionRepo) Append(userName, description string, at time.Time) model.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := model.Transaction{
		ID:          fmt.Sprintf("T%03d", len(r.items)+1),
		UserName:    userName,
		Description: description,
		Date:        at.Format(transactionDateLayout),
		Time:        at.Format(transactionTimeLayout),
	}
	r.items = append(r.items, t)
	return t
}

// List returns every transaction, most recent first.
func (r *TransactionRepo) List() []model.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Transaction, len(r.items))
	for i, t := range r.items {
		out[len(r.items)-1-i] = t
	}
	return out
}

// Len reports the number of recorded transactions.
func (r *TransactionRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// SystemLogRepo keeps the most recent operational log lines.  Once the cap
// is reached the oldest line is dropped for every new one.  Safe for
// concurrent use.
type SystemLogRepo struct {
	mu    sync.RWMutex
	cap   int
	lines []model.SystemLogEntry // oldest first, len <= cap
}

// NewSystemLogRepo returns an empty log holding at most limit lines.  A
// non-positive limit falls back to DefaultSystemLogCap.
func NewSystemLogRepo(limit int) *SystemLogRepo {
	if limit <= 0 {
		limit = DefaultSystemLogCap
	}
	return &SystemLogRepo{cap: limit}
}

// Append renders message with the at timestamp and records it.
func (r *SystemLogRepo) Append(message string, at time.Time) model.SystemLogEntry {
	line := model.SystemLogEntry(fmt.Sprintf("[%s] %s", at.Format(systemLogLayout), message))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	if over := len(r.lines) - r.cap; over > 0 {
		r.lines = append(r.lines[:0:0], r.lines[over:]...)
	}
	return line
}

// List returns the retained lines, most recent first.
func (r *SystemLogRepo) List() []model.SystemLogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.SystemLogEntry, len(r.lines))
	for i, l := range r.lines {
		out[len(r.lines)-1-i] = l
	}
	return out
}

// Len reports the number of retained lines.
func (r *SystemLogRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lines)
}
