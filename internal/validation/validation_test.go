package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructTranslatesPerField(t *testing.T) {
	type input struct {
		Email string `validate:"required,email"`
		Name  string `validate:"required"`
	}

	v := New()
	require.Nil(t, v.Struct(input{Email: "a@example.com", Name: "A"}))

	errs := v.Struct(input{Email: "nope"})
	require.Len(t, errs, 2)
	assert.Contains(t, errs["email"], "valid email")
	assert.Contains(t, errs["name"], "required")
	assert.NotEmpty(t, errs.Error())
}

func TestVar(t *testing.T) {
	v := New()
	assert.Nil(t, v.Var("webhook", "https://hooks.slack.com/services/x", "url,startswith=https://hooks.slack.com/"))

	errs := v.Var("webhook", "https://example.com/x", "url,startswith=https://hooks.slack.com/")
	require.Len(t, errs, 1)
	assert.Contains(t, errs, "webhook")
}
