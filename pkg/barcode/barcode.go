// Package barcode generates the barcode strings printed on physical labels.
// The format is <UPPER3>-<OFFICE_CODE>-<EPOCH_MS>-<INDEX>: the first three
// letters of the item name uppercased, the buying office code, wall-clock
// milliseconds at creation and the 0-based within-line ordinal.
package barcode

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Generator produces unique barcodes. Timestamps are strictly monotonic per
// generator so same-millisecond multi-line bursts can never collide.
type Generator struct {
	mu         sync.Mutex
	lastMillis int64
	now        func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Next returns the barcode for the index-th unit of a purchase line
func (g *Generator) Next(itemName, officeCode string, index int) string {
	g.mu.Lock()
	millis := g.now().UnixMilli()
	if millis <= g.lastMillis {
		millis = g.lastMillis + 1
	}
	g.lastMillis = millis
	g.mu.Unlock()

	return fmt.Sprintf("%s-%s-%d-%d", prefix(itemName), officeCode, millis, index)
}

func prefix(itemName string) string {
	name := strings.ToUpper(strings.TrimSpace(itemName))
	// Slice runes, not bytes, so multibyte names keep a valid prefix
	if runes := []rune(name); len(runes) > 3 {
		name = string(runes[:3])
	}
	return name
}
