package orderid

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	gonanoid "github.com/jaevor/go-nanoid"
)

const (
	prefix    = "CP"
	suffixLen = 6
	alphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Generator mints human-readable order identifiers: a fixed prefix, a
// base-36 millisecond timestamp, and a random suffix.
type Generator struct {
	suffix func() string
	now    func() time.Time
}

// New constructs Generator backed by a nanoid suffix source.
func New() (*Generator, error) {
	suffix, err := gonanoid.CustomASCII(alphabet, suffixLen)
	if err != nil {
		return nil, fmt.Errorf("init order id generator: %w", err)
	}
	return &Generator{suffix: suffix, now: time.Now}, nil
}

// Next returns a new order ID, e.g. CP-MEXTV0QZ-4R7K1A.
func (g *Generator) Next() string {
	ts := strings.ToUpper(strconv.FormatInt(g.now().UnixMilli(), 36))
	return fmt.Sprintf("%s-%s-%s", prefix, ts, g.suffix())
}
