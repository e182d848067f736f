package query

import "strings"

// Pattern is a compiled LIKE pattern. '%' matches any run of characters;
// there is no single-character wildcard.
type Pattern struct {
	Source string
	Exact  bool     // no wildcard at all
	Prefix string   // must start the value; empty when the pattern begins with '%'
	Suffix string   // must end the value; empty when the pattern ends with '%'
	Inner  []string // must occur in order, without overlap, between the anchors
}

// CompilePattern splits a LIKE pattern into its anchors and inner segments
func CompilePattern(src string) Pattern {
	segs := strings.Split(src, "%")
	if len(segs) == 1 {
		return Pattern{Source: src, Exact: true, Prefix: src}
	}
	p := Pattern{
		Source: src,
		Prefix: segs[0],
		Suffix: segs[len(segs)-1],
	}
	for _, seg := range segs[1 : len(segs)-1] {
		if seg != "" {
			p.Inner = append(p.Inner, seg)
		}
	}
	return p
}

// Match reports whether s satisfies the pattern
func (p Pattern) Match(s string) bool {
	if p.Exact {
		return s == p.Prefix
	}
	if !strings.HasPrefix(s, p.Prefix) {
		return false
	}
	s = s[len(p.Prefix):]
	if !strings.HasSuffix(s, p.Suffix) {
		return false
	}
	s = s[:len(s)-len(p.Suffix)]
	for _, seg := range p.Inner {
		i := strings.Index(s, seg)
		if i < 0 {
			return false
		}
		s = s[i+len(seg):]
	}
	return true
}
