package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello world", "Hello World"},
		{"HELLO WORLD", "Hello World"},
		{"mIxEd CaSe TiTle", "Mixed Case Title"},
		{"analisis di-breakdown metode", "Analisis Di-breakdown Metode"},
		{"single", "Single"},
		{"", ""},
		{"  double  spaced", "  Double  Spaced"},
		{"études économiques", "Études Économiques"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TitleCase(tt.in), "TitleCase(%q)", tt.in)
	}
}

func TestDeriveDescription(t *testing.T) {
	t.Run("short abstract keeps full text", func(t *testing.T) {
		assert.Equal(t, "A Short Abstract...", DeriveDescription("a short abstract"))
	})

	t.Run("long abstract truncates to 100 characters", func(t *testing.T) {
		abstract := strings.Repeat("kata ", 40) // 200 chars
		got := DeriveDescription(abstract)
		assert.True(t, strings.HasSuffix(got, "..."))
		assert.Len(t, []rune(strings.TrimSuffix(got, "...")), 100)
	})

	t.Run("always ends with ellipsis", func(t *testing.T) {
		assert.Equal(t, "...", DeriveDescription(""))
	})
}

func TestDisplayDate(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC), "SENIN - 2 JUNE 2025"},
		{time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC), "MINGGU - 1 JUNE 2025"},
		{time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), "SELASA - 31 DECEMBER 2024"},
		{time.Date(2026, time.January, 17, 23, 59, 0, 0, time.UTC), "SABTU - 17 JANUARY 2026"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayDate(tt.date))
	}
}
