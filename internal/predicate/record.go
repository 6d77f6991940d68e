package predicate

import (
	"fmt"
	"sort"
	"strings"
)

// #region object-ref
// ObjectRef identifies a simulated object by instance name and category.
type ObjectRef struct {
	Name     string
	Category string
}

// Label returns the instance name when byInstance is set, else the category.
func (o ObjectRef) Label(byInstance bool) string {
	if byInstance {
		return o.Name
	}
	return o.Category
}

// #endregion object-ref

// #region record
// Record is one observed fact: a predicate kind over one or two objects and
// its boolean value. Records with the same kind and objects but different
// values are distinct facts.
type Record struct {
	Kind    Kind
	Subject ObjectRef
	Object  ObjectRef // zero for absolute kinds
	Value   bool
}

// Unary builds a record for an absolute kind.
func Unary(kind Kind, subject ObjectRef, value bool) Record {
	return Record{Kind: kind, Subject: subject, Value: value}
}

// Binary builds a record for a relative kind.
func Binary(kind Kind, subject, object ObjectRef, value bool) Record {
	return Record{Kind: kind, Subject: subject, Object: object, Value: value}
}

// Objects returns the participants in order: one for absolute kinds, two for
// relative kinds.
func (r Record) Objects() []ObjectRef {
	if r.Kind.Relative() {
		return []ObjectRef{r.Subject, r.Object}
	}
	return []ObjectRef{r.Subject}
}

func (r Record) String() string {
	names := make([]string, 0, 2)
	for _, o := range r.Objects() {
		names = append(names, o.Name)
	}
	return fmt.Sprintf("%s(%s)=%t", r.Kind, strings.Join(names, ", "), r.Value)
}

func recordLess(a, b Record) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Subject.Name != b.Subject.Name {
		return a.Subject.Name < b.Subject.Name
	}
	if a.Object.Name != b.Object.Name {
		return a.Object.Name < b.Object.Name
	}
	if a.Subject.Category != b.Subject.Category {
		return a.Subject.Category < b.Subject.Category
	}
	if a.Object.Category != b.Object.Category {
		return a.Object.Category < b.Object.Category
	}
	return !a.Value && b.Value
}

// #endregion record

// #region record-set
// RecordSet is an unordered set of records.
type RecordSet map[Record]struct{}

// NewRecordSet builds a set from records.
func NewRecordSet(records ...Record) RecordSet {
	s := make(RecordSet, len(records))
	for _, r := range records {
		s[r] = struct{}{}
	}
	return s
}

// Add inserts r.
func (s RecordSet) Add(r Record) {
	s[r] = struct{}{}
}

// Has reports membership.
func (s RecordSet) Has(r Record) bool {
	_, ok := s[r]
	return ok
}

// Equal reports whether both sets hold exactly the same records.
func (s RecordSet) Equal(other RecordSet) bool {
	if len(s) != len(other) {
		return false
	}
	for r := range s {
		if _, ok := other[r]; !ok {
			return false
		}
	}
	return true
}

// Minus returns the records of s that are not in other.
func (s RecordSet) Minus(other RecordSet) RecordSet {
	out := make(RecordSet)
	for r := range s {
		if _, ok := other[r]; !ok {
			out[r] = struct{}{}
		}
	}
	return out
}

// Sorted returns the records in a deterministic order: kind, subject,
// object, then false before true.
func (s RecordSet) Sorted() []Record {
	out := make([]Record, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return recordLess(out[i], out[j]) })
	return out
}

// #endregion record-set
