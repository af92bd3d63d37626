package imapmail

import (
	"net/textproto"

	"github.com/emersion/go-imap"

	syncdomain "invoicescan-backend/internal/syncengine/domain"
)

// translateCriteria lowers a provider-neutral query into the wire-level
// search expression. SINCE/BEFORE use the server's internal date, matching
// how mail clients window a mailbox by receipt time.
func translateCriteria(crit syncdomain.Criteria) *imap.SearchCriteria {
	out := &imap.SearchCriteria{}

	if crit.Since != nil {
		out.Since = *crit.Since
	}
	if crit.Before != nil {
		out.Before = *crit.Before
	}

	andGroup(out, headerTerms("Subject", crit.SubjectAny))
	andGroup(out, headerTerms("From", crit.FromAny))

	for _, kw := range crit.SubjectNone {
		out.Not = append(out.Not, headerTerm("Subject", kw))
	}

	if crit.UIDFrom > 0 {
		seqset := new(imap.SeqSet)
		seqset.AddRange(crit.UIDFrom, 0) // 0 = no upper bound
		out.Uid = seqset
	}

	return out
}

func headerTerm(field, value string) *imap.SearchCriteria {
	header := make(textproto.MIMEHeader)
	header.Add(field, value)
	return &imap.SearchCriteria{Header: header}
}

func headerTerms(field string, values []string) []*imap.SearchCriteria {
	terms := make([]*imap.SearchCriteria, 0, len(values))
	for _, v := range values {
		terms = append(terms, headerTerm(field, v))
	}
	return terms
}

// andGroup ANDs an OR-group of terms into the top-level criteria. The
// protocol only knows pairwise OR, so three or more terms fold into
// nested pairs. A single term merges straight into the header clauses.
func andGroup(out *imap.SearchCriteria, terms []*imap.SearchCriteria) {
	switch len(terms) {
	case 0:
		return
	case 1:
		if out.Header == nil {
			out.Header = make(textproto.MIMEHeader)
		}
		for field, values := range terms[0].Header {
			for _, v := range values {
				out.Header.Add(field, v)
			}
		}
		return
	}

	acc := terms[0]
	for _, term := range terms[1 : len(terms)-1] {
		acc = &imap.SearchCriteria{
			Or: [][2]*imap.SearchCriteria{{acc, term}},
		}
	}
	out.Or = append(out.Or, [2]*imap.SearchCriteria{acc, terms[len(terms)-1]})
}
