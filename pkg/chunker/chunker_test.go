package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{
			name: "short text stays whole even with several sentences",
			text: "Hi. There! How are you?",
			max:  50,
			want: []string{"Hi. There! How are you?"},
		},
		{
			name: "empty text",
			text: "",
			max:  50,
			want: []string{""},
		},
		{
			name: "greedy accumulation",
			text: "Your container is restarting. The health check fails on port 8080. Check the logs with docker logs. Then restart it.",
			max:  50,
			want: []string{
				"Your container is restarting.",
				"The health check fails on port 8080.",
				"Check the logs with docker logs. Then restart it.",
			},
		},
		{
			name: "oversize sentence is not cut",
			text: "This sentence is definitely far longer than the limit of ten. Ok.",
			max:  10,
			want: []string{"This sentence is definitely far longer than the limit of ten.", "Ok."},
		},
		{
			name: "no boundary at all",
			text: "a single run-on line without any terminal punctuation that keeps going",
			max:  20,
			want: []string{"a single run-on line without any terminal punctuation that keeps going"},
		},
		{
			name: "punctuation without trailing whitespace is not a boundary",
			text: "Version 1.2.3 is installed on host.example.com now. Upgrade it soon please.",
			max:  30,
			want: []string{"Version 1.2.3 is installed on host.example.com now.", "Upgrade it soon please."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.text, tt.max))
		})
	}
}

func TestSplit_DefaultSize(t *testing.T) {
	text := strings.Repeat("Containers are fun. ", 10)
	assert.Equal(t, Split(text, DefaultMaxChunkSize), Split(text, 0))
	assert.Equal(t, Split(text, DefaultMaxChunkSize), Split(text, -3))
}

func TestSplit_TextWithinLimitIsIdentity(t *testing.T) {
	for _, text := range []string{"a", "Why is my container unhealthy?", "One. Two. Three.", strings.Repeat("x", 50)} {
		assert.Equal(t, []string{text}, Split(text, 50))
	}
}

func TestSplit_PreservesSentenceContent(t *testing.T) {
	texts := []string{
		"Pull the image first. Then run the container! Did it start? If not, inspect the volume mounts and network settings carefully.",
		"Backups matter. Schedule them nightly. Verify restores monthly. Keep offsite copies. Encrypt everything at rest.",
	}
	for _, text := range texts {
		chunks := Split(text, 40)
		require.NotEmpty(t, chunks)
		assert.Equal(t, strings.Join(Sentences(text), " "), strings.Join(chunks, " "))
		assert.Equal(t, text, strings.Join(chunks, " "))
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := "First sentence here. Second one follows. Third closes the thought. Fourth for good measure."
	assert.Equal(t, Split(text, 30), Split(text, 30))
}

func TestSentences(t *testing.T) {
	got := Sentences("Is it up?  Yes!\nGreat.")
	assert.Equal(t, []string{"Is it up?", "Yes!", "Great."}, got)
}
