package domain

import "time"

// Criteria is a provider-neutral boolean query over remote messages.
// Semantics: AND of all set fields; SubjectAny and FromAny are OR groups,
// SubjectNone is an AND group of negated subject clauses. The concrete wire
// syntax is the mail session's concern.
type Criteria struct {
	Since       *time.Time // message date lower bound
	Before      *time.Time // message date upper bound
	SubjectAny  []string   // ANY of these substrings in the subject
	SubjectNone []string   // NONE of these substrings in the subject
	FromAny     []string   // ANY of these senders
	UIDFrom     uint32     // minimum UID, 0 = unset (incremental tail only)
}

// IsZero reports whether no clause is set
func (c Criteria) IsZero() bool {
	return c.Since == nil && c.Before == nil &&
		len(c.SubjectAny) == 0 && len(c.SubjectNone) == 0 &&
		len(c.FromAny) == 0 && c.UIDFrom == 0
}

// SearchSpec is the filter configuration the criteria builder translates
type SearchSpec struct {
	DateFrom        *time.Time
	DateTo          *time.Time
	SubjectKeywords []string
	Senders         []string
}

// BuildCriteria translates a filter configuration into a server-side query
// expression. Exclude keywords are deliberately left out: they are applied
// downstream at index query time, never pushed to the server.
func BuildCriteria(spec SearchSpec) Criteria {
	crit := Criteria{
		Since:  spec.DateFrom,
		Before: spec.DateTo,
	}
	for _, kw := range spec.SubjectKeywords {
		if kw != "" {
			crit.SubjectAny = append(crit.SubjectAny, kw)
		}
	}
	for _, sender := range spec.Senders {
		if sender != "" {
			crit.FromAny = append(crit.FromAny, sender)
		}
	}
	return crit
}

// WithUIDFrom returns a copy of the criteria with a UID lower bound
func (c Criteria) WithUIDFrom(uid uint32) Criteria {
	c.UIDFrom = uid
	return c
}
