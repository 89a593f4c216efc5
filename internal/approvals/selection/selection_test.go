// internal/approvals/selection/selection_test.go
package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"approval-console/internal/models"
)

func loanKey(id string) Key { return Key{Kind: models.KindLoan, ID: id} }

func TestToggle_FlipsMembership(t *testing.T) {
	s := NewSet()

	assert.True(t, s.Toggle(loanKey("L1")))
	assert.True(t, s.Contains(loanKey("L1")))
	assert.Equal(t, 1, s.Len())

	assert.False(t, s.Toggle(loanKey("L1")))
	assert.False(t, s.Contains(loanKey("L1")))
	assert.Equal(t, 0, s.Len())
}

func TestToggle_KindIsPartOfTheKey(t *testing.T) {
	s := NewSet()

	s.Toggle(Key{Kind: models.KindLoan, ID: "42"})
	s.Toggle(Key{Kind: models.KindCard, ID: "42"})

	assert.Equal(t, 2, s.Len(), "a loan and a card may share an id")
}

func TestToggleAll(t *testing.T) {
	visible := []Key{loanKey("L1"), loanKey("L2"), loanKey("L3")}

	t.Run("selects every visible record", func(t *testing.T) {
		s := NewSet()
		s.ToggleAll(visible)
		assert.Equal(t, 3, s.Len())
	})

	t.Run("tops up a partial selection", func(t *testing.T) {
		s := NewSet()
		s.Toggle(loanKey("L2"))
		s.ToggleAll(visible)
		assert.Equal(t, 3, s.Len())
	})

	t.Run("clears when everything is already selected", func(t *testing.T) {
		s := NewSet()
		s.ToggleAll(visible)
		s.ToggleAll(visible)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("empty page is a no-op", func(t *testing.T) {
		s := NewSet()
		s.Toggle(loanKey("L1"))
		s.ToggleAll(nil)
		assert.Equal(t, 1, s.Len())
	})
}

func TestKeys_PreservesSelectionOrder(t *testing.T) {
	s := NewSet()
	s.Toggle(loanKey("L3"))
	s.Toggle(loanKey("L1"))
	s.Toggle(loanKey("L2"))

	assert.Equal(t, []Key{loanKey("L3"), loanKey("L1"), loanKey("L2")}, s.Keys())

	s.Toggle(loanKey("L1"))
	assert.Equal(t, []Key{loanKey("L3"), loanKey("L2")}, s.Keys())
}

func TestClear(t *testing.T) {
	s := NewSet()
	s.Toggle(loanKey("L1"))
	s.Toggle(loanKey("L2"))

	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Keys())
}

func TestPrune_DropsKeysNotOnTheNewPage(t *testing.T) {
	s := NewSet()
	s.Toggle(loanKey("L1"))
	s.Toggle(loanKey("L2"))
	s.Toggle(loanKey("L3"))

	s.Prune([]Key{loanKey("L2"), loanKey("L4")})

	assert.Equal(t, []Key{loanKey("L2")}, s.Keys())
	assert.False(t, s.Contains(loanKey("L1")))
	assert.False(t, s.Contains(loanKey("L3")))
}
