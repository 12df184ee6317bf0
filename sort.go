package bibtex

import (
	"cmp"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type sortKey struct {
	name string // "type", "key" or a field name
	desc bool
}

// parseSortSpec reads a comma separated list such as "type,-year".
func parseSortSpec(spec string) ([]sortKey, error) {
	var keys []sortKey
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		k := sortKey{name: strings.TrimPrefix(part, "-")}
		k.desc = k.name != part
		if k.name == "" {
			return nil, fmt.Errorf("invalid sort key %q in %q", part, spec)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// compareText orders a and b, numerically when both are integers.
// Empty values sort last whatever the direction.
func compareText(a, b string, desc bool) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	var c int
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		c = cmp.Compare(ai, bi)
	} else {
		c = strings.Compare(strings.ToLower(a), strings.ToLower(b))
	}
	if desc {
		return -c
	}
	return c
}

// Sort orders doc in place by the keys of spec, e.g. "type,-year". A key is
// type, key or a field name; a leading - sorts descending. The sort is stable.
func Sort(doc Document, spec string) error {
	if len(doc) == 0 {
		return fmt.Errorf("nothing to sort")
	}
	keys, err := parseSortSpec(spec)
	if err != nil {
		return err
	}
	m := NewMacros(doc)
	type row struct {
		entry Entry
		texts []string
	}
	rows := make([]row, len(doc))
	for i, e := range doc {
		texts := make([]string, len(keys))
		for j, k := range keys {
			switch k.name {
			case "type":
				texts[j] = e.Type
			case "key":
				texts[j] = e.Key
			default:
				texts[j] = strings.TrimSpace(m.Text(e, k.name))
			}
		}
		rows[i] = row{e, texts}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for k, key := range keys {
			if c := compareText(rows[i].texts[k], rows[j].texts[k], key.desc); c != 0 {
				return c < 0
			}
		}
		return false
	})
	for i, r := range rows {
		doc[i] = r.entry
	}
	return nil
}
