package barcode

import (
	"fmt"
	"regexp"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFormat(t *testing.T) {
	g := NewGenerator()
	fixed := time.UnixMilli(1700000000000)
	g.now = func() time.Time { return fixed }

	code := g.Next("Laptop", "HQ", 0)
	assert.Equal(t, "LAP-HQ-1700000000000-0", code)
}

func TestNextShortItemName(t *testing.T) {
	g := NewGenerator()
	fixed := time.UnixMilli(1700000000000)
	g.now = func() time.Time { return fixed }

	assert.Equal(t, "TV-HQ-1700000000000-0", g.Next("tv", "HQ", 0))
	assert.Equal(t, "TV-HQ-1700000000001-2", g.Next("  tv  ", "HQ", 2))
}

func TestNextMultibyteItemName(t *testing.T) {
	g := NewGenerator()
	fixed := time.UnixMilli(1700000000000)
	g.now = func() time.Time { return fixed }

	code := g.Next("Äpple", "HQ", 0)
	assert.Equal(t, "ÄPP-HQ-1700000000000-0", code)
	assert.True(t, utf8.ValidString(code))
}

func TestNextMonotonicWithinBurst(t *testing.T) {
	g := NewGenerator()
	fixed := time.UnixMilli(1700000000000)
	g.now = func() time.Time { return fixed }

	// Same wall-clock millisecond for every call; timestamps still advance
	seen := map[string]bool{}
	pattern := regexp.MustCompile(`^LAP-HQ-(\d+)-0$`)
	last := int64(0)
	for i := 0; i < 100; i++ {
		code := g.Next("Laptop", "HQ", 0)
		require.False(t, seen[code], "duplicate %q at iteration %d", code, i)
		seen[code] = true

		m := pattern.FindStringSubmatch(code)
		require.NotNil(t, m, "code %q", code)
		var millis int64
		_, err := fmt.Sscanf(m[1], "%d", &millis)
		require.NoError(t, err)
		assert.Greater(t, millis, last)
		last = millis
	}
}
