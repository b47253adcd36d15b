// Package username derives human-readable usernames from personal names and
// resolves collisions against an existence check.
package username

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// maxNumericSuffix is the last numeric suffix tried before hashing.
	maxNumericSuffix = 999
	// ceilingAttempt is the attempt number used for the unchecked fallback.
	ceilingAttempt = maxNumericSuffix + 2
)

// ExistsFunc reports whether a username is already taken.
type ExistsFunc func(ctx context.Context, username string) (bool, error)

// Generator builds username candidates. The zero value is not usable; call New.
type Generator struct {
	now func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the time source used by the timestamp fallbacks.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// New returns a Generator using the wall clock unless overridden.
func New(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Candidate returns "first.last" built from the cleaned names. If either part
// is empty after cleaning it returns "user<unix seconds>" instead.
//
// Cleaning strips accents, lowercases and keeps only a-z, so "María" becomes
// "maria" and a compound surname such as "Da Silva" becomes "dasilva".
func (g *Generator) Candidate(firstName, lastName string) string {
	first := clean(firstName)
	last := clean(lastName)
	if first == "" || last == "" {
		return "user" + strconv.FormatInt(g.now().Unix(), 10)
	}
	return first + "." + last
}

// Resolve returns the first free username derived from base. It tries base,
// then base1..base999, then base.<6 hex> and finally returns user.<8 hex>
// without checking it. Only errors from exists are returned.
func (g *Generator) Resolve(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	taken, err := exists(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	for n := 1; n <= maxNumericSuffix; n++ {
		candidate := base + strconv.Itoa(n)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	ts := g.now().Unix()
	candidate := base + "." + hexDigest(fmt.Sprintf("%s%d", base, ts), 6)
	taken, err = exists(ctx, candidate)
	if err != nil {
		return "", err
	}
	if !taken {
		return candidate, nil
	}

	return "user." + hexDigest(fmt.Sprintf("%s%d%d", base, ts, ceilingAttempt), 8), nil
}

func clean(s string) string {
	// Transformers carry state, so build a fresh chain per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(t, s)
	if err != nil {
		decomposed = s
	}
	decomposed = strings.ToLower(decomposed)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hexDigest(s string, n int) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:n]
}
