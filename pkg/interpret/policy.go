package interpret

import "github.com/microcosm-cc/bluemonday"

// ContentPolicy decides what markup is inserted for an HTML update.
// It is the only place where server content may be altered.
type ContentPolicy interface {
	Prepare(content string) string
}

// Trusted inserts server markup verbatim. The server is the authoring
// authority for markup; this is the default.
type Trusted struct{}

func (Trusted) Prepare(content string) string { return content }

// Sanitized strips markup that is not allowed by a bluemonday policy.
type Sanitized struct {
	policy *bluemonday.Policy
}

// NewSanitized returns a policy based on bluemonday's UGC policy,
// extended with the attributes the GUI markup relies on.
func NewSanitized() *Sanitized {
	p := bluemonday.UGCPolicy()
	p.AllowDataAttributes()
	p.AllowAttrs("id", "class").Globally()
	return &Sanitized{policy: p}
}

// NewSanitizedWith wraps a caller supplied bluemonday policy.
func NewSanitizedWith(p *bluemonday.Policy) *Sanitized {
	return &Sanitized{policy: p}
}

func (s *Sanitized) Prepare(content string) string {
	return s.policy.Sanitize(content)
}
