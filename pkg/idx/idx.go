package idx

import (
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a ULID in its canonical 26 character form.
type ID string

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

// generator hands out ULIDs from a monotonic entropy source. It is safe for
// concurrent use.
type generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

func (g *generator) newAt(t time.Time) ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.entropy == nil {
		g.entropy = ulid.Monotonic(rand.Reader, 0)
	}
	return ID(ulid.MustNew(ulid.Timestamp(t.UTC()), g.entropy).String())
}

var global = &generator{}

// New returns a lexicographically sortable ID using the wall clock.
func New() ID { return global.newAt(time.Now()) }

// NewAt returns an ID for the provided time from the shared generator.
func NewAt(t time.Time) ID { return global.newAt(t) }

// Parse validates s and returns it as an ID. Ids read back from cookies or
// other untrusted input go through here before touching storage.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalid
	}
	if _, err := ulid.ParseStrict(s); err != nil {
		return "", ErrInvalid
	}
	return ID(s), nil
}

// String returns the canonical string form.
func (id ID) String() string { return string(id) }
