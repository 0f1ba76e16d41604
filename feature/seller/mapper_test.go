package seller

import (
	"testing"

	"broker-office/core/sheet"
	"broker-office/core/syncengine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapperToCanonical(t *testing.T) {
	m := NewMapper()

	record, err := m.ToCanonical(sheet.Row{
		"seller_number": " aa12345 ",
		"name":          "Yamada Taro",
		"price":         "1,250,000",
		"status":        "listed",
	})
	require.NoError(t, err)

	assert.Equal(t, "AA12345", record.Key)
	assert.Equal(t, "AA12345", record.Fields["seller_number"])
	assert.Equal(t, "Yamada Taro", record.Fields["name"])
	assert.Equal(t, float64(1250000), record.Fields["price"])
	// Unset columns come through as empty strings, not missing keys.
	assert.Equal(t, "", record.Fields["phone"])
}

func TestMapperToCanonical_BadPrice(t *testing.T) {
	m := NewMapper()

	_, err := m.ToCanonical(sheet.Row{
		"seller_number": "AA12345",
		"price":         "ask the owner",
	})
	assert.ErrorContains(t, err, "not numeric")
}

func TestMapperToTabular(t *testing.T) {
	m := NewMapper()

	row := m.ToTabular(syncengine.Record{
		Key: "AA12345",
		Fields: map[string]any{
			"name":  "Yamada Taro",
			"price": float64(9800000),
		},
	})

	assert.Equal(t, "AA12345", row["seller_number"])
	assert.Equal(t, "Yamada Taro", row["name"])
	assert.Equal(t, "9800000", row["price"])
	assert.Equal(t, "", row["notes"])
}

func TestMapperValidate(t *testing.T) {
	m := NewMapper()

	cases := []struct {
		name  string
		row   sheet.Row
		valid bool
		want  string
	}{
		{
			name:  "Valid",
			row:   sheet.Row{"seller_number": "AA12345", "name": "Taro", "price": "100"},
			valid: true,
		},
		{
			name:  "LowercaseKeyAccepted",
			row:   sheet.Row{"seller_number": "aa12345", "name": "Taro"},
			valid: true,
		},
		{
			name: "MissingKey",
			row:  sheet.Row{"name": "Taro"},
			want: "seller_number is required",
		},
		{
			name: "BadKeyFormat",
			row:  sheet.Row{"seller_number": "A1234", "name": "Taro"},
			want: "does not match AA00000 format",
		},
		{
			name: "MissingName",
			row:  sheet.Row{"seller_number": "AA12345"},
			want: "name is required",
		},
		{
			name: "BadPrice",
			row:  sheet.Row{"seller_number": "AA12345", "name": "Taro", "price": "TBD"},
			want: "not numeric",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := m.Validate(tc.row)
			assert.Equal(t, tc.valid, result.IsValid)
			if tc.want != "" {
				require.NotEmpty(t, result.Errors)
				assert.Contains(t, result.Errors[0], tc.want)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{nil, 0},
		{"", 0},
		{"100", 100},
		{"1,250,000", 1250000},
		{"$9,800", 9800},
		{"¥5000", 5000},
		{float64(42.5), 42.5},
		{7, 7},
	}

	for _, tc := range cases {
		got, err := parsePrice(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := parsePrice("negotiable")
	assert.Error(t, err)
}
