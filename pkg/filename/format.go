package filename

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/opensdc/dbflow/pkg/domain"
)

var ErrFilename = errors.New("filename error")

type segment struct {
	literal string
	token   string
}

// tokenize splits a format template into literal and `{token}` segments.
//
// An unterminated brace is a template error.
func tokenize(format string) ([]segment, error) {
	segments := []segment{}
	for len(format) > 0 {
		open := strings.IndexByte(format, '{')
		if open < 0 {
			segments = append(segments, segment{literal: format})
			break
		}
		if open > 0 {
			segments = append(segments, segment{literal: format[:open]})
		}
		rest := format[open:]
		close := strings.IndexByte(rest, '}')
		if close < 0 {
			return nil, fmt.Errorf("%w: unterminated token in %q", ErrFilename, format)
		}
		name := rest[1:close]
		if name == "" {
			return nil, fmt.Errorf("%w: empty token in %q", ErrFilename, format)
		}
		if expansion, ok := composites[name]; ok {
			sub, err := tokenize(expansion)
			if err != nil {
				return nil, err
			}
			segments = append(segments, sub...)
		} else {
			segments = append(segments, segment{token: name})
		}
		format = rest[close+1:]
	}
	return segments, nil
}

// Format expands a product format template under ctx.
func Format(format string, ctx Context) (string, error) {
	segments, err := tokenize(format)
	if err != nil {
		return "", err
	}
	sb := strings.Builder{}
	for _, seg := range segments {
		if seg.token == "" {
			sb.WriteString(seg.literal)
			continue
		}
		sb.WriteString(lookup(seg.token).generate(ctx))
	}
	return sb.String(), nil
}

// group names must be valid Go regexp identifiers and unique per pattern.
// Repeated tokens keep the shape but only the first occurrence captures.
func groupName(name string) string {
	return "tk" + strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

// Regex compiles a format template into a recognizer.
//
// Each token becomes a capture group named after it, matching its shape.
// Tokens whose value is fixed by ctx (mission, product and friends) match
// that value literally.
func Regex(format string, ctx Context) (*regexp.Regexp, error) {
	segments, err := tokenize(format)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	sb := strings.Builder{}
	sb.WriteString(`^`)
	for _, seg := range segments {
		if seg.token == "" {
			sb.WriteString(regexp.QuoteMeta(seg.literal))
			continue
		}
		fragment := lookup(seg.token).pattern(ctx)
		if name := groupName(seg.token); !seen[name] {
			seen[name] = true
			sb.WriteString(`(?P<` + name + `>` + fragment + `)`)
		} else {
			sb.WriteString(`(?:` + fragment + `)`)
		}
	}
	sb.WriteString(`$`)

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("%w: format %q: %s", ErrFilename, format, err)
	}
	return re, nil
}

// Parsed is what a recognized filename yields back.
type Parsed struct {
	Date       time.Time
	HasDate    bool
	Version    domain.Version
	HasVersion bool

	// raw values per token name, first occurrence of each.
	Groups map[string]string
}

// Parse matches basename against a format template and extracts the encoded
// date and version.
//
// A non-matching basename returns (zero, false, nil). Malformed templates
// return an error.
func Parse(format string, basename string, ctx Context) (Parsed, bool, error) {
	re, err := Regex(format, ctx)
	if err != nil {
		return Parsed{}, false, err
	}
	match := re.FindStringSubmatch(basename)
	if match == nil {
		return Parsed{}, false, nil
	}

	groups := map[string]string{}
	for nth, name := range re.SubexpNames() {
		if name == "" || len(name) <= 2 {
			continue
		}
		groups[strings.TrimPrefix(name, "tk")] = match[nth]
	}

	parsed := Parsed{Groups: groups}

	if v, ok := groups["VERSION"]; ok {
		version, err := domain.ParseVersion(v)
		if err != nil {
			return Parsed{}, false, nil
		}
		parsed.Version = version
		parsed.HasVersion = true
	}

	if date, ok := dateOfGroups(groups); ok {
		parsed.Date = date
		parsed.HasDate = true
	}

	return parsed, true, nil
}

// dateOfGroups rebuilds the encoded date from whichever date tokens the
// format carried.
func dateOfGroups(groups map[string]string) (time.Time, bool) {
	year, haveYear := 0, false
	if y, ok := groups["Y"]; ok {
		year, haveYear = atoi(y), true
	} else if y, ok := groups["y"]; ok {
		// two-digit years pivot at 70, like time.Parse
		year = atoi(y)
		if year < 70 {
			year += 2000
		} else {
			year += 1900
		}
		haveYear = true
	}
	if !haveYear {
		return time.Time{}, false
	}

	if j, ok := groups["j"]; ok {
		return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, atoi(j)-1), true
	}

	month := 1
	if m, ok := groups["m"]; ok {
		month = atoi(m)
	} else if b, ok := groups["b"]; ok {
		for nth, abbrev := range monthAbbrevs {
			if b == abbrev {
				month = nth + 1
				break
			}
		}
	}
	day := 1
	if d, ok := groups["d"]; ok {
		day = atoi(d)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
