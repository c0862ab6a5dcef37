package msg

import "fmt"

const (
	minDomainLen = 3
	maxDomainLen = 100
)

// MsgDomain names the kind of content a feed carries, e.g. "post" or "about".
//
// The zero value is not a valid domain; use NewMsgDomain.
type MsgDomain struct {
	s string
}

// NewMsgDomain validates s: 3 to 100 characters drawn from [A-Za-z0-9_].
func NewMsgDomain(s string) (MsgDomain, error) {
	switch {
	case len(s) > maxDomainLen:
		return MsgDomain{}, newError(KindDomain, RuleDomainTooLong,
			fmt.Sprintf("domain %q is %d characters long (max %d)", s, len(s), maxDomainLen))
	case len(s) < minDomainLen:
		return MsgDomain{}, newError(KindDomain, RuleDomainTooShort,
			fmt.Sprintf("domain %q is shorter than %d characters", s, minDomainLen))
	}
	for i := 0; i < len(s); i++ {
		if !isDomainChar(s[i]) {
			return MsgDomain{}, newError(KindDomain, RuleDomainBadCharacters,
				fmt.Sprintf("domain %q contains characters other than a-z, A-Z, 0-9, or _", s))
		}
	}
	return MsgDomain{s: s}, nil
}

// MustDomain is NewMsgDomain for compile-time constants.
func MustDomain(s string) MsgDomain {
	d, err := NewMsgDomain(s)
	if err != nil {
		panic(err)
	}
	return d
}

func isDomainChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

func (d MsgDomain) String() string { return d.s }

func (d MsgDomain) IsZero() bool { return d.s == "" }

func (d MsgDomain) MarshalText() ([]byte, error) {
	if d.s == "" {
		return nil, newError(KindDomain, RuleDomainTooShort, "empty domain")
	}
	return []byte(d.s), nil
}

func (d *MsgDomain) UnmarshalText(text []byte) error {
	v, err := NewMsgDomain(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
