package password

import "unicode/utf8"

// Validate applies the request-boundary length rules. Length is counted in runes.
func (c Config) Validate(password string) error {
	n := utf8.RuneCountInString(password)
	if n < c.Policy.MinLength {
		return ErrPasswordTooShort
	}
	if c.Policy.MaxLength > 0 && n > c.Policy.MaxLength {
		return ErrPasswordTooLong
	}
	return nil
}
