// Package states holds the fixed U.S. state name <-> postal code lookup and
// the canonical 50-state ordering used to delimit period blocks.
package states

import "strings"

type entry struct {
	name string
	code string
}

// entries is the single source of truth for both lookup directions. It covers
// the 50 states, the District of Columbia and the territories that appear in
// USDA reports.
var entries = []entry{
	{"Alabama", "AL"},
	{"Alaska", "AK"},
	{"Arizona", "AZ"},
	{"Arkansas", "AR"},
	{"California", "CA"},
	{"Colorado", "CO"},
	{"Connecticut", "CT"},
	{"Delaware", "DE"},
	{"District of Columbia", "DC"},
	{"Florida", "FL"},
	{"Georgia", "GA"},
	{"Hawaii", "HI"},
	{"Idaho", "ID"},
	{"Illinois", "IL"},
	{"Indiana", "IN"},
	{"Iowa", "IA"},
	{"Kansas", "KS"},
	{"Kentucky", "KY"},
	{"Louisiana", "LA"},
	{"Maine", "ME"},
	{"Maryland", "MD"},
	{"Massachusetts", "MA"},
	{"Michigan", "MI"},
	{"Minnesota", "MN"},
	{"Mississippi", "MS"},
	{"Missouri", "MO"},
	{"Montana", "MT"},
	{"Nebraska", "NE"},
	{"Nevada", "NV"},
	{"New Hampshire", "NH"},
	{"New Jersey", "NJ"},
	{"New Mexico", "NM"},
	{"New York", "NY"},
	{"North Carolina", "NC"},
	{"North Dakota", "ND"},
	{"Northern Mariana Islands", "MP"},
	{"Ohio", "OH"},
	{"Oklahoma", "OK"},
	{"Oregon", "OR"},
	{"Palau", "PW"},
	{"Pennsylvania", "PA"},
	{"Puerto Rico", "PR"},
	{"Rhode Island", "RI"},
	{"South Carolina", "SC"},
	{"South Dakota", "SD"},
	{"Tennessee", "TN"},
	{"Texas", "TX"},
	{"Utah", "UT"},
	{"Vermont", "VT"},
	{"Virgin Islands", "VI"},
	{"Virginia", "VA"},
	{"Washington", "WA"},
	{"West Virginia", "WV"},
	{"Wisconsin", "WI"},
	{"Wyoming", "WY"},
}

// nonStates are entries excluded from the canonical 50-state ordering.
var nonStates = map[string]bool{
	"DC": true, "MP": true, "PW": true, "PR": true, "VI": true,
}

// Lookup is an immutable bidirectional name <-> code map.
type Lookup struct {
	byName    map[string]string
	byCode    map[string]string
	names     []string
	canonical []string
}

// Default is the lookup built from the fixed table above.
var Default = newLookup(entries)

func newLookup(es []entry) *Lookup {
	l := &Lookup{
		byName: make(map[string]string, len(es)),
		byCode: make(map[string]string, len(es)),
	}
	for _, e := range es {
		l.byName[e.name] = e.code
		l.byCode[e.code] = e.name
		l.names = append(l.names, e.name)
		if !nonStates[e.code] {
			l.canonical = append(l.canonical, e.name)
		}
	}
	return l
}

// Code returns the postal code for a full state name.
func (l *Lookup) Code(name string) (string, bool) {
	code, ok := l.byName[name]
	return code, ok
}

// Name returns the full state name for a postal code.
func (l *Lookup) Name(code string) (string, bool) {
	name, ok := l.byCode[code]
	return name, ok
}

// Resolve accepts either a full name or a postal code and returns both.
// Surrounding whitespace is ignored.
func (l *Lookup) Resolve(value string) (name, code string, ok bool) {
	value = strings.TrimSpace(value)
	if code, ok := l.byName[value]; ok {
		return value, code, true
	}
	if name, ok := l.byCode[value]; ok {
		return name, value, true
	}
	return "", "", false
}

// Names returns every name in the lookup, in table order.
func (l *Lookup) Names() []string {
	return append([]string(nil), l.names...)
}

// Canonical returns the 50 states in canonical order (Alabama..Wyoming).
func (l *Lookup) Canonical() []string {
	return append([]string(nil), l.canonical...)
}

// First is the state that opens every period block.
func (l *Lookup) First() string {
	return l.canonical[0]
}

// Last is the state that closes every period block.
func (l *Lookup) Last() string {
	return l.canonical[len(l.canonical)-1]
}

// Code returns the postal code for name using the default lookup.
func Code(name string) (string, bool) { return Default.Code(name) }

// Name returns the state name for code using the default lookup.
func Name(code string) (string, bool) { return Default.Name(code) }

// Resolve maps a name or a code to both forms using the default lookup.
func Resolve(value string) (string, string, bool) { return Default.Resolve(value) }

// Names returns all names in the default lookup.
func Names() []string { return Default.Names() }
