package validation

import (
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// FieldErrors maps a lowercased field name to a human-readable message.
// Validation failures never reach the network layer; callers surface these
// per field.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func New() *Validator {
	v := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(v, trans)

	return &Validator{validate: v, trans: trans}
}

// Struct validates s and returns nil or a FieldErrors with one translated
// message per failing field.
func (v *Validator) Struct(s any) FieldErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return FieldErrors{"_root": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[strings.ToLower(fe.Field())] = fe.Translate(v.trans)
	}
	return out
}

// Var validates a single value against a rule, keyed under name.
func (v *Validator) Var(name, value, rule string) FieldErrors {
	err := v.validate.Var(value, rule)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return FieldErrors{name: err.Error()}
	}
	return FieldErrors{name: verrs[0].Translate(v.trans)}
}
