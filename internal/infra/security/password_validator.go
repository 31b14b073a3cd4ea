package security

import (
	"fmt"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"

	"github.com/bastianbaeza/JackdawSoft/internal/infra/config"
)

// PasswordRule validates one aspect of a candidate password.
type PasswordRule interface {
	Validate(password string) error
}

// PasswordRuleFunc adapts a function to the PasswordRule interface.
type PasswordRuleFunc func(password string) error

func (f PasswordRuleFunc) Validate(password string) error { return f(password) }

// PasswordPolicy runs every configured rule and collects all failures so the
// client can show them at once.
type PasswordPolicy struct {
	rules []PasswordRule
}

func NewPasswordPolicy(rules ...PasswordRule) *PasswordPolicy {
	return &PasswordPolicy{rules: rules}
}

// Validate returns every rule violation for the candidate password.
func (p *PasswordPolicy) Validate(password string) []error {
	var errs []error
	for _, rule := range p.rules {
		if err := rule.Validate(password); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// MinLengthRule rejects passwords shorter than n runes.
func MinLengthRule(n int) PasswordRule {
	return PasswordRuleFunc(func(password string) error {
		if len([]rune(password)) < n {
			return fmt.Errorf("password must be at least %d characters", n)
		}
		return nil
	})
}

// RequireUppercaseRule rejects passwords without an uppercase letter.
func RequireUppercaseRule() PasswordRule {
	return requireClassRule(unicode.IsUpper, "password must contain an uppercase letter")
}

// RequireLowercaseRule rejects passwords without a lowercase letter.
func RequireLowercaseRule() PasswordRule {
	return requireClassRule(unicode.IsLower, "password must contain a lowercase letter")
}

// RequireDigitRule rejects passwords without a digit.
func RequireDigitRule() PasswordRule {
	return requireClassRule(unicode.IsDigit, "password must contain a digit")
}

// RequireSpecialRule rejects passwords without a punctuation or symbol rune.
func RequireSpecialRule() PasswordRule {
	return requireClassRule(func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}, "password must contain a special character")
}

func requireClassRule(match func(rune) bool, msg string) PasswordRule {
	return PasswordRuleFunc(func(password string) error {
		for _, r := range password {
			if match(r) {
				return nil
			}
		}
		return fmt.Errorf("%s", msg)
	})
}

// RequireStrengthRule rejects passwords whose zxcvbn score is below min.
// Scores run 0..4.
func RequireStrengthRule(min int) PasswordRule {
	return PasswordRuleFunc(func(password string) error {
		if zxcvbn.PasswordStrength(password, nil).Score < min {
			return fmt.Errorf("password is too predictable")
		}
		return nil
	})
}

// PolicyFromConfig assembles the password policy from configuration.
func PolicyFromConfig(cfg config.PasswordSettings) *PasswordPolicy {
	rules := []PasswordRule{MinLengthRule(cfg.MinLength)}
	if cfg.RequireUpper {
		rules = append(rules, RequireUppercaseRule())
	}
	if cfg.RequireLower {
		rules = append(rules, RequireLowercaseRule())
	}
	if cfg.RequireDigit {
		rules = append(rules, RequireDigitRule())
	}
	if cfg.RequireSpecial {
		rules = append(rules, RequireSpecialRule())
	}
	if cfg.MinStrength > 0 {
		rules = append(rules, RequireStrengthRule(cfg.MinStrength))
	}
	return NewPasswordPolicy(rules...)
}
