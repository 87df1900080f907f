package filter

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/scrypster/catdata/internal/naming"
)

// Grammar: categories are joined by '`' and values by '~'. Each token is
// "name(bit)" with bit 0 or 1. A regular expression rule serializes as
// "name(bit)^pattern", the pattern running to the end of the first '~' token.
// The canonical empty filter is the single space " ".
const (
	categorySep = "`"
	valueSep    = "~"
	regexpSep   = "^"
	emptyFilter = " "
)

// Serialize renders the filter as a preference rule string. With simplify,
// each rule is canonicalized first and vacuous rules are omitted; the filter
// itself is not modified.
func (f *Filter) Serialize(simplify bool) string {
	var categories []string
	for _, nameInt := range f.sortedNames() {
		chk := f.checks[nameInt]
		if simplify {
			if chk = simplifyCheck(chk); chk == nil {
				continue
			}
		}
		hasRegExp := chk.regexp != nil && chk.regexp.Pattern() != ""
		if len(chk.values) == 0 && !hasRegExp {
			continue
		}
		name := f.names.NameIntToString(nameInt)
		var b strings.Builder
		b.WriteString(name)
		b.WriteByte('(')
		b.WriteByte(bitByte(chk.nameOn))
		b.WriteByte(')')
		if hasRegExp {
			b.WriteString(regexpSep)
			b.WriteString(chk.regexp.Pattern())
		}
		valueInts := make([]int, 0, len(chk.values))
		for v := range chk.values {
			valueInts = append(valueInts, v)
		}
		// Sentinel IDs are negative and sort ahead of real values.
		sort.Ints(valueInts)
		for _, v := range valueInts {
			b.WriteString(valueSep)
			b.WriteString(f.names.ValueIntToString(v))
			b.WriteByte('(')
			b.WriteByte(bitByte(chk.values[v]))
			b.WriteByte(')')
		}
		categories = append(categories, b.String())
	}
	if len(categories) == 0 {
		return emptyFilter
	}
	return strings.Join(categories, categorySep)
}

// Deserialize replaces the filter's rules with the ones encoded in s. The
// filter is cleared first, so a parse failure leaves it empty. With
// skipUnchecked, categories whose name bit is 0 are validated but not
// installed. An invalid regular expression pattern is logged and skipped
// without failing the parse.
func (f *Filter) Deserialize(s string, skipUnchecked bool) error {
	f.Clear()
	if strings.TrimSpace(s) == "" {
		return nil
	}
	for _, chunk := range strings.Split(s, categorySep) {
		if err := f.deserializeCategory(chunk, skipUnchecked); err != nil {
			f.Clear()
			return err
		}
	}
	return nil
}

func (f *Filter) deserializeCategory(chunk string, skipUnchecked bool) error {
	toks := strings.Split(chunk, valueSep)
	nameTok := toks[0]
	pattern := ""
	// The regular expression lives inside the first token, after a '^'
	// separator. Only the first '^' splits; a pattern may itself start
	// with '^'.
	if i := strings.Index(nameTok, regexpSep); i >= 0 {
		pattern = nameTok[i+1:]
		nameTok = nameTok[:i]
	}

	name, nameOn, err := parseToken(nameTok)
	if err != nil {
		return err
	}
	if len(toks) == 1 && pattern == "" {
		return fmt.Errorf("filter: category %s has no values", name)
	}

	install := !(skipUnchecked && !nameOn)
	var chk *check
	if install {
		nameInt := f.names.AddCategoryName(name)
		if pattern != "" {
			if err := f.SetRegExp(nameInt, pattern); err != nil {
				log.Printf("filter: ignoring invalid regular expression for %s: %v", name, err)
			}
		}
		chk = f.checks[nameInt]
		if chk == nil {
			chk = &check{values: make(map[int]bool)}
			f.checks[nameInt] = chk
		}
		// A category may appear more than once; checked wins for the name.
		chk.nameOn = chk.nameOn || nameOn
	}

	for _, tok := range toks[1:] {
		value, on, err := parseToken(tok)
		if err != nil {
			return err
		}
		if !install {
			continue
		}
		chk.values[f.valueInt(name, value)] = on
	}
	return nil
}

// valueInt resolves a serialized value string to its ID, mapping the
// sentinel display strings back to their reserved IDs.
func (f *Filter) valueInt(name, value string) int {
	switch value {
	case naming.UnlistedValueStr:
		return naming.UnlistedValue
	case naming.NoValueStr:
		return naming.NoValueAtTime
	}
	return f.names.AddCategoryValue(f.names.AddCategoryName(name), value)
}

// parseToken splits "name(bit)" into its parts. The bit must be the single
// character 0 or 1 and the name must be non-empty.
func parseToken(tok string) (name string, on bool, err error) {
	if len(tok) < 4 || tok[len(tok)-1] != ')' || tok[len(tok)-3] != '(' {
		return "", false, fmt.Errorf("filter: malformed token %q", tok)
	}
	switch tok[len(tok)-2] {
	case '0':
		on = false
	case '1':
		on = true
	default:
		return "", false, fmt.Errorf("filter: malformed token %q", tok)
	}
	return tok[:len(tok)-3], on, nil
}

// simplifyCheck returns the canonical minimal form of a rule, or nil when
// the rule cannot affect matching. A regular expression supersedes the
// checklist. Checklist entries that only restate the unlisted default are
// dropped; a rule reduced to "unlisted and missing values both pass" is
// vacuous.
func simplifyCheck(c *check) *check {
	if c.regexp != nil && c.regexp.Pattern() != "" {
		return &check{nameOn: true, values: make(map[int]bool), regexp: c.regexp}
	}
	if !c.nameOn {
		return nil
	}
	unlisted := c.values[naming.UnlistedValue]
	out := make(map[int]bool)
	for v, on := range c.values {
		switch v {
		case naming.UnlistedValue, naming.NoValueAtTime:
			if on {
				out[v] = true
			}
		default:
			if on != unlisted {
				out[v] = on
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	if len(out) == 2 && out[naming.UnlistedValue] && out[naming.NoValueAtTime] {
		return nil
	}
	return &check{nameOn: true, values: out}
}

func (f *Filter) sortedNames() []int {
	out := make([]int, 0, len(f.checks))
	for nameInt := range f.checks {
		out = append(out, nameInt)
	}
	sort.Ints(out)
	return out
}

func bitByte(on bool) byte {
	if on {
		return '1'
	}
	return '0'
}
