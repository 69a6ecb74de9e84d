package styles_test

import (
	"os"
	"testing"

	"github.com/arthur-debert/dotman/pkg/ui/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedRegistry(t *testing.T) {
	for _, name := range styles.DefaultNames {
		t.Run(name, func(t *testing.T) {
			assert.True(t, styles.Has(name), "style %s should be registered", name)
		})
	}

	assert.True(t, styles.GetStyle("Unrecoverable").GetBold())
	assert.True(t, styles.GetStyle("Error").GetBold())
	assert.Equal(t, 2, styles.GetStyle("Indent").GetMarginLeft())
}

func TestGetStyleUnknownName(t *testing.T) {
	style := styles.GetStyle("NoSuchStyle")
	assert.False(t, style.GetBold())
	assert.Equal(t, "plain", style.Render("plain"))
}

func TestMergeStyles(t *testing.T) {
	merged := styles.MergeStyles("Key", "Italic")
	assert.True(t, merged.GetBold())
	assert.True(t, merged.GetItalic())
}

func TestForStatus(t *testing.T) {
	tests := []struct {
		status string
		style  string
	}{
		{"linked", "Success"},
		{"skipped", "Success"},
		{"tracked", "Success"},
		{"failed", "Error"},
		{"unrecoverable", "Unrecoverable"},
		{"missing", "Warning"},
		{"linked-elsewhere", "Warning"},
		{"untracked", "Info"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			want := styles.GetStyle(tt.style)
			got := styles.ForStatus(tt.status)
			assert.Equal(t, want.GetBold(), got.GetBold())
			assert.Equal(t, want.GetForeground(), got.GetForeground())
		})
	}
}

func TestLoadStylesFromData(t *testing.T) {
	t.Cleanup(func() {
		// Restore the embedded palette for other tests.
		require.NoError(t, styles.LoadStylesFromData(mustEmbedded(t)))
	})

	data := []byte(`
colors:
  accent:
    light: "#000000"
    dark: "#ffffff"
styles:
  Custom:
    italic: true
    foreground: accent
    width: 10
    align: right
`)
	require.NoError(t, styles.LoadStylesFromData(data))

	custom := styles.GetStyle("Custom")
	assert.True(t, custom.GetItalic())
	assert.Equal(t, 10, custom.GetWidth())
	assert.Equal(t, lipgloss.Right, custom.GetAlignHorizontal())
	assert.Equal(t, lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}, custom.GetForeground())

	// Defaults stay registered alongside custom styles.
	assert.True(t, styles.Has("Unrecoverable"))
}

func TestLoadStylesFromDataRejectsInvalid(t *testing.T) {
	assert.Error(t, styles.LoadStylesFromData([]byte("styles: [unclosed")))
	assert.Error(t, styles.LoadStylesFromData([]byte("colors: {}")))
	assert.Error(t, styles.LoadStyles("/nonexistent/styles.yaml"))

	// A failed load leaves the registry intact.
	assert.True(t, styles.GetStyle("Error").GetBold())
}

func mustEmbedded(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("styles.yaml")
	require.NoError(t, err)
	return data
}
