package mei

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// idGenerator hands out document-wide unique identifiers of the form
// <kind>-<session><10-digit counter>. A generator is built once per encode
// call with a fresh random session token, so concurrent encodes in one
// process never collide even though each counter starts at zero.
type idGenerator struct {
	session string
	counter uint64
}

func newIDGenerator() *idGenerator {
	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	return &idGenerator{session: token[:8]}
}

func (g *idGenerator) next(kind string) string {
	g.counter++
	return fmt.Sprintf("%s-%s%010d", kind, g.session, g.counter)
}
