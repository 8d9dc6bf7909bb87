package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	orig := lipgloss.HasDarkBackground()
	t.Cleanup(func() { lipgloss.SetHasDarkBackground(orig) })

	assert.NoError(t, Apply("light"))
	assert.False(t, lipgloss.HasDarkBackground())

	assert.NoError(t, Apply(" Dark "))
	assert.True(t, lipgloss.HasDarkBackground())

	assert.NoError(t, Apply("default"))
	assert.True(t, lipgloss.HasDarkBackground(), "default leaves detection alone")

	assert.Error(t, Apply("solarized"))
}
