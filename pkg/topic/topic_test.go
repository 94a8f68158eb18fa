package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Why is my container unhealthy?", []string{Container, Troubleshooting}},
		{"How do I mount a VOLUME?", []string{Volume}},
		{"Scan the image for CVE-2024-1234", []string{Image, Security}},
		{"Nightly backup and snapshot policy", []string{Backup}},
		{"hello there", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Is the stack running?", IntentQuestion},
		{"restart the web service", IntentCommand},
		{"it is broken again", IntentHelp},
		{"thanks a lot", IntentUnknown},
		// question mark wins over command verbs
		{"can you stop it?", IntentQuestion},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIntent(tt.text))
		})
	}
}

func TestKnown(t *testing.T) {
	assert.True(t, Known(Backup))
	assert.False(t, Known("gardening"))
	assert.Len(t, Names(), 8)
}
