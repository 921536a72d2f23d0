package model

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson"
)

// Patch is a partial-field update: a set of top-level (or dotted) field
// names and their new values.  It is always applied with $set so fields not
// named in the patch are left untouched.
type Patch struct {
	fields map[string]any
}

// NewPatch returns an empty patch.
func NewPatch() *Patch { return &Patch{fields: map[string]any{}} }

// Set records field = v and returns p for chaining.
func (p *Patch) Set(field string, v any) *Patch {
	if p.fields == nil {
		p.fields = map[string]any{}
	}
	p.fields[field] = v
	return p
}

// Get returns the value recorded for field.
func (p *Patch) Get(field string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.fields[field]
	return v, ok
}

// Has reports whether field is part of the patch.
func (p *Patch) Has(field string) bool {
	_, ok := p.Get(field)
	return ok
}

// Merge copies every field of other into p, overwriting duplicates.
func (p *Patch) Merge(other *Patch) *Patch {
	if other == nil {
		return p
	}
	for k, v := range other.fields {
		p.Set(k, v)
	}
	return p
}

// Len is the number of fields in the patch.
func (p *Patch) Len() int {
	if p == nil {
		return 0
	}
	return len(p.fields)
}

// Fields returns the patched field names in sorted order.
func (p *Patch) Fields() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.fields))
	for k := range p.fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Update renders the patch as a Mongo update document.
func (p *Patch) Update() bson.M {
	set := bson.M{}
	if p != nil {
		for k, v := range p.fields {
			set[k] = v
		}
	}
	return bson.M{"$set": set}
}
