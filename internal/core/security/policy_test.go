package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorPolicy_DefaultRule(t *testing.T) {
	p, err := NewActorPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultOverrideRule, p.Rule())

	tests := []struct {
		name  string
		roles []string
		want  bool
	}{
		{"admin", []string{"admin"}, true},
		{"manager among others", []string{"cashier", "manager"}, true},
		{"cashier", []string{"cashier"}, false},
		{"no roles", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Privileged(7, tt.roles))
		})
	}
}

func TestActorPolicy_CustomRule(t *testing.T) {
	p, err := NewActorPolicy(`user_id == 1 || "owner" in roles`)
	require.NoError(t, err)

	assert.True(t, p.Privileged(1, nil))
	assert.True(t, p.Privileged(5, []string{"owner"}))
	assert.False(t, p.Privileged(5, []string{"admin"}))

	actor := p.Actor(1, []string{"cashier"})
	assert.EqualValues(t, 1, actor.ID)
	assert.True(t, actor.Privileged)
}

func TestActorPolicy_RejectsBadRules(t *testing.T) {
	_, err := NewActorPolicy(`roles +`)
	assert.Error(t, err)

	_, err = NewActorPolicy(`user_id + 1`)
	assert.Error(t, err)

	_, err = NewActorPolicy(`unknown_var == 1`)
	assert.Error(t, err)
}
