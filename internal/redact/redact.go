package redact

// The logged command line is for humans grepping syslog.
// The child always gets the real argv. Never the other way around.

import "strings"

// MaxLength caps both command-line accumulators, in bytes.
const MaxLength = 1023

// sensitivePrefixes are matched as literal prefixes, not as keys.
// "--passwordXYZ=abc" is redacted too. Keep it that way.
var sensitivePrefixes = []string{"--password", "--challenge"}

// Line holds the two accumulators built from one invocation.
type Line struct {
	// Full is the target followed by every argument. Never log it.
	Full string
	// Logged is Full minus sensitive arguments.
	Logged string
	// Truncated is true when Logged hit MaxLength.
	Truncated bool
}

// IsSensitive reports whether arg starts with an excluded flag name.
func IsSensitive(arg string) bool {
	for _, p := range sensitivePrefixes {
		if strings.HasPrefix(arg, p) {
			return true
		}
	}
	return false
}

// Build seeds both accumulators with target and appends each argument
// separated by a single space. Output is silently cut at MaxLength bytes,
// possibly in the middle of an argument.
func Build(target string, args []string) Line {
	full := newBounded(target, MaxLength)
	logged := newBounded(target, MaxLength)

	for _, arg := range args {
		full.append(" ")
		full.append(arg)

		if IsSensitive(arg) {
			continue
		}

		logged.append(" ")
		logged.append(arg)
	}

	return Line{
		Full:      full.String(),
		Logged:    logged.String(),
		Truncated: logged.truncated,
	}
}

// bounded is a byte buffer that drops whatever does not fit.
type bounded struct {
	buf       []byte
	max       int
	truncated bool
}

func newBounded(seed string, max int) *bounded {
	b := &bounded{buf: make([]byte, 0, max), max: max}
	b.append(seed)
	return b
}

func (b *bounded) append(s string) {
	room := b.max - len(b.buf)
	if room <= 0 {
		if len(s) > 0 {
			b.truncated = true
		}
		return
	}
	if len(s) > room {
		s = s[:room]
		b.truncated = true
	}
	b.buf = append(b.buf, s...)
}

func (b *bounded) String() string {
	return string(b.buf)
}
