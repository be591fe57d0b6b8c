package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlateValid(t *testing.T) {
	testCases := []struct {
		plate string
		valid bool
	}{
		{"ABC123", true},
		{"ABC12D", true},
		{"abc 123", true}, // normalization strips whitespace and uppercases
		{"abc123", true},
		{"AB1234", false},
		{"A1C123", false},
		{"ABCD12", false},
		{"ABC1234", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.plate, func(t *testing.T) {
			assert.Equal(t, tc.valid, PlateValid(tc.plate))
		})
	}
}

func TestNormalizePlate(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizePlate("abc 123"))
	assert.Equal(t, "ABC12D", NormalizePlate("  abc12d  "))
	assert.Equal(t, "ABC123", NormalizePlate("ABC123"))
}

func TestInstitutionalEmail(t *testing.T) {
	testCases := []struct {
		email string
		valid bool
	}{
		{"laura@unisabana.edu.co", true},
		{"laura@UNISABANA.edu.co", true},
		{"laura@alumni.unisabana.edu.co", true},
		{"laura@gmail.com", false},
		{"laura@unisabana.edu.com", false},
		{"laura@notunisabana.edu.co", false},
		{"no-at-sign", false},
	}

	for _, tc := range testCases {
		t.Run(tc.email, func(t *testing.T) {
			assert.Equal(t, tc.valid, InstitutionalEmail(tc.email))
		})
	}
}

func TestSanitizeDataStripsMarkup(t *testing.T) {
	type payload struct {
		Name        string
		Description *string
		Tags        []string
	}

	description := "<script>alert(1)</script>park entrance"
	p := &payload{
		Name:        "<b>Calle 100</b>",
		Description: &description,
		Tags:        []string{"<i>north</i>"},
	}

	err := GetValidator().SanitizeData(p)
	assert.NoError(t, err)
	assert.Equal(t, "Calle 100", p.Name)
	assert.Equal(t, "park entrance", *p.Description)
	assert.Equal(t, "north", p.Tags[0])
}
