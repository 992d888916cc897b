package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageIsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ct   string
		want bool
	}{
		{"missing header", "", true},
		{"html with charset", "text/html; charset=utf-8", true},
		{"xhtml", "application/xhtml+xml", true},
		{"plain text", "text/plain", true},
		{"uppercase", "TEXT/HTML", true},
		{"pdf", "application/pdf", false},
		{"image", "image/png", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &Page{ContentType: tt.ct}
			assert.Equal(t, tt.want, p.IsHTML())
		})
	}
}
