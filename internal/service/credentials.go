package service

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/candy-store/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var errTokenInvalid = errors.New("invalid token")

// passwordPolicyError 携带 i18n 键与参数，handler 据此渲染提示
type passwordPolicyError struct {
	key  string
	args []interface{}
}

func (e passwordPolicyError) Error() string        { return e.key }
func (e passwordPolicyError) Is(target error) bool { return target == ErrWeakPassword }
func (e passwordPolicyError) Key() string          { return e.key }
func (e passwordPolicyError) Args() []interface{}  { return e.args }

type passwordTraits struct {
	upper, lower, digit, special bool
}

func scanPassword(password string) passwordTraits {
	var t passwordTraits
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			t.upper = true
		case unicode.IsLower(r):
			t.lower = true
		case unicode.IsDigit(r):
			t.digit = true
		default:
			t.special = true
		}
	}
	return t
}

// 字符类规则按顺序检查，只报告第一条未满足的
var passwordClassRules = []struct {
	required func(config.PasswordPolicyConfig) bool
	present  func(passwordTraits) bool
	key      string
}{
	{func(p config.PasswordPolicyConfig) bool { return p.RequireUpper }, func(t passwordTraits) bool { return t.upper }, "error.password_require_upper"},
	{func(p config.PasswordPolicyConfig) bool { return p.RequireLower }, func(t passwordTraits) bool { return t.lower }, "error.password_require_lower"},
	{func(p config.PasswordPolicyConfig) bool { return p.RequireNumber }, func(t passwordTraits) bool { return t.digit }, "error.password_require_number"},
	{func(p config.PasswordPolicyConfig) bool { return p.RequireSpecial }, func(t passwordTraits) bool { return t.special }, "error.password_require_special"},
}

func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	if policy.MinLength > 0 && len([]rune(password)) < policy.MinLength {
		return passwordPolicyError{key: "error.password_min_length", args: []interface{}{policy.MinLength}}
	}
	traits := scanPassword(password)
	for _, rule := range passwordClassRules {
		if rule.required(policy) && !rule.present(traits) {
			return passwordPolicyError{key: rule.key}
		}
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

const defaultSessionHours = 24

// sessionWindow 返回签发时间与过期时间，hours<=0 时按 24 小时
func sessionWindow(hours int) (time.Time, time.Time) {
	if hours <= 0 {
		hours = defaultSessionHours
	}
	now := time.Now()
	return now, now.Add(time.Duration(hours) * time.Hour)
}

func registeredClaims(issuedAt, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
	}
}

func signToken(secret string, claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// parseToken 仅接受 HS256，成功时填充 claims
func parseToken(secret, tokenString string, claims jwt.Claims) error {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errTokenInvalid
	}
	return nil
}
