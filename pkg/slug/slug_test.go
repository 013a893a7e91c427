package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Waffle with Berries", "waffle-with-berries"},
		{"Crème Brûlée  Set", "creme-brulee-set"},
		{"  --Men's Shoes--  ", "men-s-shoes"},
		{"iPhone 15 Pro", "iphone-15-pro"},
		{"", ""},
		{"日本", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in))
		})
	}
}
