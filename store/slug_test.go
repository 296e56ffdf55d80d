package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ağrı'da Öğrenci Sevinci", "agrida-ogrenci-sevinci"},
		{"İSTANBUL'DA YAĞMUR", "istanbulda-yagmur"},
		{"Çalışma  saatleri -- değişti!", "calisma-saatleri-degisti"},
		{"  Dolar/TL 41,20 seviyesinde  ", "dolartl-4120-seviyesinde"},
		{"Café déjà vu", "cafe-deja-vu"},
		{"snake_case kalır", "snake_case-kalir"},
		{"-- Başta ve sonda --", "basta-ve-sonda"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Slugify(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Slugify(got), "slugify is idempotent")
		})
	}
}
