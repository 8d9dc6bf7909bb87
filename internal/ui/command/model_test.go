package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	assert.Equal(t, []string{"messages", "mark all"}, Suggest("m"))
	assert.Equal(t, []string{"announcements"}, Suggest(" AN"))
	assert.Equal(t, Commands, Suggest(""))
	assert.Empty(t, Suggest("zzz"))
}

func TestTabCompletes(t *testing.T) {
	m := New(80, 20)
	m.Focus()
	for _, r := range "cle" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if assert.NotNil(t, cmd) {
		assert.Equal(t, CommandMsg("clear read"), cmd())
	}
}
