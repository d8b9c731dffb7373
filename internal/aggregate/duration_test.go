package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMillis(t *testing.T) {
	cases := []struct {
		name string
		ms   int64
		want string
	}{
		{"zero", 0, "00:00:00"},
		{"truncates sub-second", 999, "00:00:00"},
		{"forty five minutes", 45 * 60 * 1000, "00:45:00"},
		{"mixed", (1*3600+2*60+3)*1000 + 999, "01:02:03"},
		{"no day wraparound", 123*3600*1000 + 4*60*1000 + 5*1000, "123:04:05"},
		{"negative clamps", -5000, "00:00:00"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, FormatMillis(c.ms))
		})
	}
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "01:30:00", FormatMinutes(90))
	assert.Equal(t, "00:00:30", FormatMinutes(0.5))
}
