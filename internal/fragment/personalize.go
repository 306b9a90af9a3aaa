package fragment

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// Personalizer renders per-recipient Liquid variables inside a fragment,
// e.g. {{ first_name | default: "there" }}. It is lax: render errors return
// the fragment unrendered so a malformed template never blocks a send.
type Personalizer struct {
	engine *liquid.Engine
	cache  sync.Map // template source -> *liquid.Template
}

// NewPersonalizer creates a Liquid engine with the filters templates rely on.
func NewPersonalizer() *Personalizer {
	engine := liquid.NewEngine()

	engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	engine.RegisterFilter("capitalize", func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	})

	return &Personalizer{engine: engine}
}

// Render substitutes Liquid variables in frag. On any parse or render error
// the original fragment is returned along with the error.
func (p *Personalizer) Render(frag string, vars map[string]interface{}) (string, error) {
	var tpl *liquid.Template
	if cached, ok := p.cache.Load(frag); ok {
		tpl = cached.(*liquid.Template)
	} else {
		parsed, err := p.engine.ParseTemplate([]byte(frag))
		if err != nil {
			return frag, err
		}
		p.cache.Store(frag, parsed)
		tpl = parsed
	}

	out, err := tpl.Render(vars)
	if err != nil {
		return frag, err
	}
	return string(out), nil
}

// VarsForRecipient derives the standard per-recipient variable set from an
// email address: first_name guesses the local part before any separator.
func VarsForRecipient(email string) map[string]interface{} {
	local, _, _ := strings.Cut(email, "@")
	first := local
	for _, sep := range []string{".", "_", "-", "+"} {
		if head, _, ok := strings.Cut(first, sep); ok {
			first = head
		}
	}
	return map[string]interface{}{
		"email":      email,
		"first_name": first,
	}
}
