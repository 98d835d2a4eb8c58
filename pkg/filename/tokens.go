// filename implements the token-substitution engine for product filename
// formats.
//
// A format like `rbspa_ect-hope-L1_{Y}{m}{d}_v{VERSION}.cdf` is used two ways:
//
//   - expanded with a Context, it names a new file;
//   - compiled into a regex, it recognizes existing files and yields their
//     date and version back.
//
// Both directions share one fixed token registry.
package filename

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/opensdc/dbflow/pkg/domain"
)

// Context carries the values tokens expand to.
type Context struct {
	Mission    string
	Spacecraft string
	Instrument string
	Product    string
	Level      string
	RootDir    string

	// quality assessment code: "ok", "ignore" or "problem".
	QACode string

	Date    time.Time
	Version domain.Version

	// values for integer and unknown tokens, keyed by token name.
	Fields map[string]string
}

func (c Context) field(name string) string {
	if c.Fields == nil {
		return ""
	}
	return c.Fields[name]
}

type token struct {
	// expand the token under ctx.
	generate func(ctx Context) string

	// regex fragment matching the token's shape. Group name is applied by
	// the compiler; fragments must not contain capture groups themselves.
	pattern func(ctx Context) string
}

func literalToken(pick func(Context) string) token {
	return token{
		generate: pick,
		pattern: func(ctx Context) string {
			if v := pick(ctx); v != "" {
				return regexp.QuoteMeta(v)
			}
			return ".*"
		},
	}
}

var monthAbbrevs = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

var registry = map[string]token{
	"Y": {
		generate: func(c Context) string { return fmt.Sprintf("%04d", c.Date.Year()) },
		pattern:  func(Context) string { return `(?:19|2\d)\d\d` },
	},
	"y": {
		generate: func(c Context) string { return fmt.Sprintf("%02d", c.Date.Year()%100) },
		pattern:  func(Context) string { return `\d\d` },
	},
	"m": {
		generate: func(c Context) string { return fmt.Sprintf("%02d", int(c.Date.Month())) },
		pattern:  func(Context) string { return `(?:0[1-9]|1[0-2])` },
	},
	"b": {
		generate: func(c Context) string { return monthAbbrevs[c.Date.Month()-1] },
		pattern:  func(Context) string { return `(?:` + strings.Join(monthAbbrevs, "|") + `)` },
	},
	"d": {
		generate: func(c Context) string { return fmt.Sprintf("%02d", c.Date.Day()) },
		pattern:  func(Context) string { return `(?:0[1-9]|[12]\d|3[01])` },
	},
	"j": {
		generate: func(c Context) string { return fmt.Sprintf("%03d", c.Date.YearDay()) },
		pattern:  func(Context) string { return `[0-3]\d\d` },
	},
	"H": {
		generate: func(c Context) string { return fmt.Sprintf("%02d", c.Date.Hour()) },
		pattern:  func(Context) string { return `(?:[01]\d|2[0-3])` },
	},
	"M": {
		generate: func(c Context) string { return fmt.Sprintf("%02d", c.Date.Minute()) },
		pattern:  func(Context) string { return `[0-5]\d` },
	},
	"S": {
		generate: func(c Context) string { return fmt.Sprintf("%02d", c.Date.Second()) },
		pattern:  func(Context) string { return `(?:[0-5]\d|6[01])` },
	},
	"MILLI": {
		generate: func(c Context) string { return fmt.Sprintf("%03d", c.Date.Nanosecond()/1e6) },
		pattern:  func(Context) string { return `\d{3}` },
	},
	"MICRO": {
		generate: func(c Context) string { return fmt.Sprintf("%06d", c.Date.Nanosecond()/1e3) },
		pattern:  func(Context) string { return `\d{6}` },
	},
	"VERSION": {
		generate: func(c Context) string { return c.Version.String() },
		pattern:  func(Context) string { return `\d+\.\d+\.\d+` },
	},
	"QACODE": {
		generate: func(c Context) string { return c.QACode },
		pattern:  func(Context) string { return `(?:ok|ignore|problem)` },
	},
	"MISSION":    literalToken(func(c Context) string { return c.Mission }),
	"SPACECRAFT": literalToken(func(c Context) string { return c.Spacecraft }),
	"INSTRUMENT": literalToken(func(c Context) string { return c.Instrument }),
	"PRODUCT":    literalToken(func(c Context) string { return c.Product }),
	"LEVEL":      literalToken(func(c Context) string { return c.Level }),
	"ROOTDIR":    literalToken(func(c Context) string { return c.RootDir }),
}

// composite tokens rewrite into other tokens before compilation.
var composites = map[string]string{
	"DATE": "{Y}{m}{d}",
}

var integerField = regexp.MustCompile(`^n+$`)

// lookup resolves a token name.
//
// Integer fields ({nnn} and the like) match a digit run of the same width.
// Unknown tokens expand from Context.Fields and match anything, per the
// format contract.
func lookup(name string) token {
	if t, ok := registry[name]; ok {
		return t
	}
	if integerField.MatchString(name) {
		width := len(name)
		return token{
			generate: func(c Context) string { return c.field(name) },
			pattern:  func(Context) string { return fmt.Sprintf(`\d{%d}`, width) },
		}
	}
	return token{
		generate: func(c Context) string { return c.field(name) },
		pattern:  func(Context) string { return `.*` },
	}
}
