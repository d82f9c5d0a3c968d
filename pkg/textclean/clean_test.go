package textclean

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"non string", 42, ""},
		{"empty", "", ""},
		{"lowercase and punctuation", "Space-Adventure!", "space adventure"},
		{"digits removed", "Apollo 13 mission", "apollo mission"},
		{"stopwords removed", "The Lord of the Rings", "lord rings"},
		{"whitespace collapsed", "  a   quiet\tplace \n", "quiet place"},
		{"underscore kept", "sci_fi", "sci_fi"},
		{"unicode letters kept", "Amélie, Paris", "amélie paris"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestCleanerWithoutStopWords(t *testing.T) {
	c := NewCleaner(nil)
	assert.Equal(t, "the lord of the rings", c.Clean("The Lord of the Rings"))
}
