package dialog_test

import (
	"testing"

	"github.com/aretw0/parley/pkg/dialog"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	actions := []string{"buy", "sell", "change", "retrieve"}

	tests := []struct {
		name  string
		text  string
		vocab []string
		want  string
		ok    bool
	}{
		{"exact", "sell", actions, "sell", true},
		{"inside sentence", "I want to retrieve my sofa", actions, "retrieve", true},
		{"first entry wins", "buy or sell", []string{"sell", "buy"}, "sell", true},
		{"case sensitive", "BUY", actions, "", false},
		{"no match", "hello", actions, "", false},
		{"empty text", "", actions, "", false},
		{"empty vocabulary", "buy", nil, "", false},
		{"empty entries skipped", "anything", []string{"", "any"}, "any", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := dialog.Validate(tt.text, tt.vocab)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
