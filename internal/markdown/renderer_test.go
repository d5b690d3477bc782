package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "headings and emphasis",
			input:    "# Reiniciar VPN\n\nUse **Cisco AnyConnect**.",
			contains: []string{"<h1>Reiniciar VPN</h1>", "<strong>Cisco AnyConnect</strong>"},
		},
		{
			name:     "script tags are stripped",
			input:    "hola <script>alert(1)</script>",
			excludes: []string{"<script>", "alert(1)"},
		},
		{
			name:     "lists render",
			input:    "- uno\n- dos",
			contains: []string{"<li>uno</li>", "<li>dos</li>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(tt.input)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}
