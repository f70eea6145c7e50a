package validator

import "strings"

const (
	MinPasswordLen = 8
	MaxPasswordLen = 72 // bcryptの上限
)

// よくある弱いパスワード
var weakPasswords = map[string]struct{}{
	"password":    {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwertyuiop":  {},
	"letmein123":  {},
	"admin123":    {},
}

// サインアップの入力を検証
func Register(name, email, password string) Violations {
	v := New()
	v.Required("name", name)
	v.MaxLen("name", name, 255)
	v.Required("email", email)
	v.Email("email", email)
	v.MaxLen("email", email, 255)
	Password(v, "password", password)
	return v
}

// ログインの入力を検証
func Login(email, password string) Violations {
	v := New()
	v.Required("email", email)
	v.Email("email", email)
	v.Check(password != "", "password", "must not be blank")
	return v
}

func Password(v Violations, field, password string) {
	v.MinLen(field, password, MinPasswordLen)
	v.Check(len(password) <= MaxPasswordLen, field, "must be at most 72 bytes")
	if _, weak := weakPasswords[strings.ToLower(strings.TrimSpace(password))]; weak {
		v.Add(field, "is too common")
	}
}
