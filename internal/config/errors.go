package config

// ValidationError reports one invalid setting. Validate joins several of
// them; use errors.As to inspect each.
type ValidationError struct {
	Field   string
	Problem string
	Err     error
}

func (e *ValidationError) Error() string {
	return "config: " + e.Field + " " + e.Problem
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
