package bibtex

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
)

type SetActionType int8

const (
	SetNoAction SetActionType = iota
	// SetIntersect finds entries common to one or more sets and
	// returns the entry that belongs to the first set
	// if one file, SetIntersect results in a set that includes the first entry
	SetIntersect
	SetUnion
	SetConcat
)

var ErrNothingToDedup = errors.New("nothing to deduplicate")

var setActionNames = map[string]SetActionType{
	"none":      SetNoAction,
	"intersect": SetIntersect,
	"union":     SetUnion,
	"concat":    SetConcat,
}

// ParseSetAction maps none, intersect, union and concat to their action.
func ParseSetAction(s string) (SetActionType, error) {
	if s == "" {
		return SetNoAction, nil
	}
	a, ok := setActionNames[strings.ToLower(s)]
	if !ok {
		return SetNoAction, fmt.Errorf("invalid set action %q", s)
	}
	return a, nil
}

type EntryInfo struct {
	Entry  Entry
	Parent *File
	Index  int // position in Parent.Entries
}

type DedupMap = map[string][]EntryInfo

type DedupReport struct {
	DuplicateSetCount int
	DuplicateSet      DedupMap
	ResultSetCount    int
}

func (dr *DedupReport) Print(w io.Writer) (err error) {
	if dr == nil || dr.DuplicateSetCount == 0 {
		return nil
	}
	if _, err = fmt.Fprintf(w, "%d duplicate sets found\n", dr.DuplicateSetCount); err != nil {
		return err
	}
	idxTerms := make([]string, 0, len(dr.DuplicateSet))
	for idxTerm := range dr.DuplicateSet {
		idxTerms = append(idxTerms, idxTerm)
	}
	sort.Strings(idxTerms)
	for _, idxTerm := range idxTerms {
		entries := dr.DuplicateSet[idxTerm]
		ndup := len(entries)
		if ndup < 2 {
			continue
		}
		_, err = fmt.Fprintf(w, "%s\n[%s] has %d occurrences in lines \n", strings.Repeat("*", 60), idxTerm, ndup)
		if err != nil {
			return err
		}
		for _, n := range entries {
			if _, err = fmt.Fprintf(w, "%s:%d\n", n.Parent.Name(), n.Entry.Line); err != nil {
				return err
			}
			if err = Print(w, n.Entry); err != nil {
				return err
			}
		}
	}
	if dr.ResultSetCount > 0 {
		_, err = fmt.Fprintf(w, "%d records processed\n", dr.ResultSetCount)
	}
	return err
}

func (dr DedupReport) String() string {
	var b = new(bytes.Buffer)
	if err := dr.Print(b); err != nil {
		b.WriteString("error: " + err.Error())
	}
	return b.String()
}

// indexEntry returns a string concatenating the resolved values of fields
func indexEntry(m *Macros, e Entry, fldNames []string, raw bool) string {
	var sb strings.Builder
	for _, fldname := range fldNames {
		sb.WriteString(m.Text(e, fldname))
	}
	if raw {
		return sb.String()
	}
	return onlyASCIIAlphaNumeric(sb.String())
}

// Deduplicate performs various set operations on one or more bib files
// using the concatenated values of field names. If no fields specified,
// citekey is used to deduplicate the set.
// if no error encountered, it returns a DedupReport struct if action== SetNoAction
// and additionally a set of processed entries if action != SetNoAction.
// @string and @preamble entries are not compared; they head the result in
// input order so that macros still resolve.
func Deduplicate(files []*File, fldNames []string, action SetActionType) (*File, *DedupReport, error) {
	total := 0
	for _, f := range files {
		total += f.EntryCount()
	}
	if total == 0 {
		return nil, nil, ErrNothingToDedup
	}
	hasFields := len(fldNames) > 0
	citekey := !hasFields || slices.Contains(fldNames, "citekey")
	dupSet := make(DedupMap, total)
	var order []string // index terms in order of first appearance
	var commands []Entry
	for _, f := range files {
		m := NewMacros(f.Entries)
		for i, e := range f.Entries {
			if e.isCommand() {
				commands = append(commands, e)
				continue
			}
			idx := ""
			if hasFields {
				idx = indexEntry(m, e, fldNames, false)
			}
			if citekey {
				idx = idx + e.Key
			}
			if _, seen := dupSet[idx]; !seen {
				order = append(order, idx)
			}
			dupSet[idx] = append(dupSet[idx], EntryInfo{e, f, i})
		}
	}
	duplicateSets := 0
	for _, entries := range dupSet {
		if len(entries) > 1 {
			duplicateSets++
		}
	}
	dr := &DedupReport{DuplicateSetCount: duplicateSets, DuplicateSet: dupSet}
	switch action {
	case SetNoAction:
		return nil, dr, nil
	case SetIntersect:
		if duplicateSets == 0 {
			return nil, nil, fmt.Errorf("no common records")
		}
		res := newRoot("intersection.bib")
		res.Entries = append(res.Entries, commands...)
		for _, idx := range order {
			if recs := dupSet[idx]; len(recs) > 1 { //duplicates
				res.AddEntry(recs[0].Entry) //keep the first in the set
				dr.ResultSetCount++
			}
		}
		return res, dr, nil
	case SetUnion:
		res := newRoot("union.bib")
		res.Entries = append(res.Entries, commands...)
		for _, idx := range order {
			res.AddEntry(dupSet[idx][0].Entry)
			dr.ResultSetCount++
		}
		return res, dr, nil
	case SetConcat:
		res := newRoot("concat.bib")
		for _, f := range files {
			res.Entries = append(res.Entries, f.Entries...)
		}
		dr.ResultSetCount = len(res.Entries)
		return res, dr, nil
	}
	return nil, nil, fmt.Errorf("invalid set action")
}

// ValidKeys checks if all entries have citekeys and all are unique
func ValidKeys(f *File) bool {
	_, dr, err := Deduplicate([]*File{f}, nil, SetNoAction)
	if err != nil {
		return true // only error is nothing to deduplicate
	}
	if dr.DuplicateSetCount > 0 {
		return false
	}
	for _, e := range f.Entries {
		if e.Key == "" && !e.isCommand() {
			return false
		}
	}
	return true
}

// NewCiteKey generates a new key using last name of the first author + pub year +
// first word of the title + first letter of entry type + page or volume #
func NewCiteKey(m *Macros, e Entry) string {
	var sb strings.Builder
	author := m.Text(e, "author")
	first, _, _ := strings.Cut(author, " and ")
	word, _, found := strings.Cut(first, ",")
	if !found {
		fields := strings.Fields(first)
		word = ""
		if len(fields) > 0 {
			word = fields[len(fields)-1]
		}
	}
	sb.WriteString(onlyASCIIAlphaNumeric(word))
	sb.WriteString(onlyASCIIAlphaNumeric(m.Text(e, "year")))
	word, _, _ = strings.Cut(strings.TrimSpace(m.Text(e, "title")), " ")
	sb.WriteString(onlyASCIIAlphaNumeric(word))
	b := byte('x')
	if e.Type != "" {
		b = byte(lower(rune(e.Type[0])))
	}
	sb.WriteByte(b)
	sb.WriteString(onlyASCIIAlphaNumeric(m.Text(e, "pages") + m.Text(e, "volume")))
	return sb.String()
}

// FixKeys ensures that every entry has a unique key
// contents of fldnames will be used to create a unique key
// with A,B,C etc added to ensure uniqueness, skipping keys already in use; if len(fldnames)== 0
// standard algorithm to create new citekeys. if all is true
// all keys are replaced not just missing ones.
// Entries are replaced in f.Entries, never modified in place.
func FixKeys(f *File, fldnames []string, all bool) (*DedupReport, error) {
	useStd := len(fldnames) == 0
	m := NewMacros(f.Entries)
	for i, e := range f.Entries {
		if e.isCommand() || !(all || e.Key == "") {
			continue
		}
		if useStd {
			e.Key = NewCiteKey(m, e)
		} else {
			e.Key = indexEntry(m, e, fldnames, false)
		}
		f.Entries[i] = e
	}
	// dedup in terms of citekey
	_, dr, err := Deduplicate([]*File{f}, nil, SetNoAction)
	if err != nil {
		return nil, err
	}
	if dr.DuplicateSetCount == 0 {
		return nil, nil
	}
	used := make(map[string]bool, len(f.Entries))
	for _, e := range f.Entries {
		used[e.Key] = true
	}
	groups := make([][]EntryInfo, 0, dr.DuplicateSetCount)
	for _, entries := range dr.DuplicateSet {
		if len(entries) > 1 {
			groups = append(groups, entries)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0].Index < groups[j][0].Index })
	for _, entries := range groups {
		n := 0
		for _, info := range entries[1:] {
			e := f.Entries[info.Index]
			key := e.Key
			for used[key] {
				n++
				key = e.Key + keySuffix(n)
			}
			used[key] = true
			e.Key = key
			f.Entries[info.Index] = e
		}
	}
	return dr, nil
}

// keySuffix returns A..Z for 1..26, then AA, AB and so on.
func keySuffix(n int) string {
	var b []byte
	for ; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}
