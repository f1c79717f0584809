package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"13800138001", "13800138001"},
		{" 138-0013-8001 ", "13800138001"},
		{"+86 138 0013 8001", "13800138001"},
		{"008613800138001", "13800138001"},
		{"１３８００１３８００１", "13800138001"},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalize_Invalido(t *testing.T) {
	for _, in := range []string{"", "   ", "abc12345", "1234", "138001380011380013800"} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, ErrInvalid, in)
	}
}

func TestLastDigits(t *testing.T) {
	assert.Equal(t, "0001", LastDigits("13900000001", 4))
	assert.Equal(t, "12", LastDigits("12", 4))
}
