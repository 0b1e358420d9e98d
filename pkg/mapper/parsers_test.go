package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"yes", "true", false},
		{"YES", "true", false},
		{" t ", "true", false},
		{"1", "true", false},
		{"no", "false", false},
		{"False", "false", false},
		{"0", "false", false},
		{"", "", true},
		{"maybe", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseBool(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBoarderDay(t *testing.T) {
	got, err := parseBoarderDay("B")
	assert.NoError(t, err)
	assert.Equal(t, "true", got)

	got, err = parseBoarderDay(" D ")
	assert.NoError(t, err)
	assert.Equal(t, "false", got)

	_, err = parseBoarderDay("")
	assert.Error(t, err)

	_, err = parseBoarderDay("X")
	assert.Error(t, err)
}

func TestParseTitle(t *testing.T) {
	m := New()

	got, err := m.parseTitle("MATHEMATICS")
	assert.NoError(t, err)
	assert.Equal(t, "Mathematics", got)

	got, err = m.parseTitle("")
	assert.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "MATH101", NormalizeKey("  math101 "))
	assert.Equal(t, "T1", NormalizeKey("t1"))
	assert.Equal(t, "", NormalizeKey("   "))
}
