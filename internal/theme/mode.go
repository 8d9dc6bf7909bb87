package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Apply selects which side of the adaptive colors is used. "default"
// (or empty) keeps lipgloss's terminal detection.
func Apply(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default", "auto":
		return nil
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	default:
		return fmt.Errorf("unknown theme %q (want default, dark or light)", name)
	}
	return nil
}
