package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonalizerRender(t *testing.T) {
	p := NewPersonalizer()

	out, err := p.Render(`Hi {{ first_name | default: "there" }}!`, map[string]interface{}{
		"first_name": "dana",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi dana!", out)

	out, err = p.Render(`Hi {{ first_name | default: "there" }}!`, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", out)
}

func TestPersonalizerCapitalize(t *testing.T) {
	p := NewPersonalizer()
	out, err := p.Render(`{{ first_name | capitalize }}`, map[string]interface{}{"first_name": "dana"})
	require.NoError(t, err)
	assert.Equal(t, "Dana", out)
}

func TestPersonalizerBadTemplateReturnsInput(t *testing.T) {
	p := NewPersonalizer()
	in := `{% if %}broken`
	out, err := p.Render(in, nil)
	assert.Error(t, err)
	assert.Equal(t, in, out, "a malformed template must never block a send")
}

func TestVarsForRecipient(t *testing.T) {
	tests := []struct {
		email string
		first string
	}{
		{"dana.scully@example.com", "dana"},
		{"mulder_f@example.com", "mulder"},
		{"plain@example.com", "plain"},
		{"a-b+c@example.com", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			vars := VarsForRecipient(tt.email)
			assert.Equal(t, tt.first, vars["first_name"])
			assert.Equal(t, tt.email, vars["email"])
		})
	}
}
