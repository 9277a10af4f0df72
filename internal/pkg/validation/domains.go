package validation

import "strings"

// DomainAllowList accepts e-mail addresses whose domain is listed, or is a sub-domain of a listed entry.
type DomainAllowList struct {
	domains []string
}

func NewDomainAllowList(domains []string) *DomainAllowList {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimLeft(strings.ToLower(strings.TrimSpace(d)), "@.")
		if d != "" {
			out = append(out, d)
		}
	}
	return &DomainAllowList{domains: out}
}

// Allows reports whether email's domain is accepted. Matching ignores case.
func (l *DomainAllowList) Allows(email string) bool {
	domain := EmailDomain(email)
	if domain == "" {
		return false
	}
	for _, d := range l.domains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

func (l *DomainAllowList) Domains() []string {
	return append([]string(nil), l.domains...)
}

// EmailDomain returns the lower-cased part after the last "@", or "" when there is none.
func EmailDomain(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
