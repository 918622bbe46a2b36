package preferences

import "github.com/Meeting-BaaS/emails/internal/catalog"

// View is the effective frequency of one catalog type for an account.
type View struct {
	EmailID   catalog.EmailID   `json:"emailId"`
	Frequency catalog.Frequency `json:"frequency"`
}

// Merge returns one view per catalog type in catalog order. Types without a
// stored row read as Never. Rows for types outside the catalog are ignored.
func Merge(types []catalog.EmailType, rows []Preference) []View {
	stored := make(map[catalog.EmailID]catalog.Frequency, len(rows))
	for _, r := range rows {
		stored[r.EmailType] = r.Frequency
	}
	out := make([]View, len(types))
	for i, t := range types {
		f, ok := stored[t.ID]
		if !ok {
			f = catalog.Never
		}
		out[i] = View{EmailID: t.ID, Frequency: f}
	}
	return out
}

// AsMap keys views by email id, the shape the preferences page consumes.
func AsMap(views []View) map[catalog.EmailID]catalog.Frequency {
	m := make(map[catalog.EmailID]catalog.Frequency, len(views))
	for _, v := range views {
		m[v.EmailID] = v.Frequency
	}
	return m
}

// DomainTargets lists the ids a domain-wide update touches. Setting a domain
// to Never leaves required types untouched.
func DomainTargets(d catalog.Domain, f catalog.Frequency) []catalog.EmailID {
	var ids []catalog.EmailID
	for _, t := range catalog.TypesInDomain(d) {
		if f == catalog.Never && t.Required {
			continue
		}
		ids = append(ids, t.ID)
	}
	return ids
}
