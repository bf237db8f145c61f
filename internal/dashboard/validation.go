package dashboard

// Validation is the outcome of checking a submitted form.
// It is either Valid or Invalid.
type Validation interface {
	isValidation()
}

// Valid means every field passed its rules.
type Valid struct{}

// Invalid carries one message per failing field, keyed by form field name.
type Invalid struct {
	Fields map[string]string
}

func (Valid) isValidation()   {}
func (Invalid) isValidation() {}

// fieldErrors returns the failing fields of v, or nil when v is valid.
func fieldErrors(v Validation) map[string]string {
	inv, ok := v.(Invalid)
	if !ok {
		return nil
	}
	if inv.Fields == nil {
		return map[string]string{}
	}
	return inv.Fields
}
