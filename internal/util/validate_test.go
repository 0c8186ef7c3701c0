package util

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPhone(t *testing.T) {
	assert.True(t, IsPhone("13800138000"))
	assert.False(t, IsPhone("23800138000"))
	assert.False(t, IsPhone("1380013800"))
	assert.False(t, IsPhone("138001380001"))
	assert.False(t, IsPhone("1380013800a"))
}

func TestIsIDNumber(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid 18 digit", "110101199003071234", true},
		{"valid 18 with X", "11010119900307123X", true},
		{"valid 15 digit", "110101900307123", true},
		{"unknown province", "990101199003071234", false},
		{"bad month", "110101199013071234", false},
		{"feb 30", "110101199002301234", false},
		{"leap day", "110101200002291234", true},
		{"wrong length", "1101011990030712", false},
		{"letters inside", "1101011990A3071234", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsIDNumber(tt.value))
		})
	}
}

func TestRegisterValidations_StructTags(t *testing.T) {
	type profile struct {
		Phone    string `validate:"omitempty,cnphone"`
		IDNumber string `validate:"omitempty,cnidnumber"`
	}

	v := validator.New()
	require.NoError(t, RegisterValidations(v))

	require.NoError(t, v.Struct(profile{}))
	require.NoError(t, v.Struct(profile{Phone: "13800138000", IDNumber: "110101199003071234"}))
	assert.Error(t, v.Struct(profile{Phone: "12345"}))
}
