package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flowdesk/internal/model"
)

func TestTransactionRepo_IdsAndOrder(t *testing.T) {
	at := time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)
	r := NewTransactionRepo()

	first := r.Append("Alice", "Updated user information", at)
	r.Append("Alice", "Joined waiting queue", at.Add(time.Second))

	assert.Equal(t, "T001", first.ID)
	assert.Equal(t, "03/09/2025", first.Date)
	assert.Equal(t, "14:05:07", first.Time)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "T002", list[0].ID, "most recent first")
	assert.Equal(t, "T001", list[1].ID)
}

func TestSystemLogRepo_Cap(t *testing.T) {
	at := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	r := NewSystemLogRepo(DefaultSystemLogCap)

	for i := 1; i <= 150; i++ {
		r.Append(fmt.Sprintf("op %d", i), at)
	}

	lines := r.List()
	require.Len(t, lines, 100)
	assert.Equal(t, model.SystemLogEntry("[03/09/2025 08:00:00] op 150"), lines[0])
	assert.Equal(t, model.SystemLogEntry("[03/09/2025 08:00:00] op 51"), lines[99])
}

func TestSystemLogRepo_DefaultCap(t *testing.T) {
	r := NewSystemLogRepo(0)
	for i := 0; i < DefaultSystemLogCap+5; i++ {
		r.Append("x", time.Time{})
	}
	assert.Equal(t, DefaultSystemLogCap, r.Len())
}
