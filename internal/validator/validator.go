package validator

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"
)

// Violationsはフィールド名→メッセージ。
// 最初の1件で止めずに全部集める。
type Violations map[string]string

func New() Violations {
	return Violations{}
}

// Addは同じフィールドの2件目以降は無視する（最初の違反を残す）
func (v Violations) Add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// Checkはokがfalseのとき違反を追加する
func (v Violations) Check(ok bool, field, msg string) {
	if !ok {
		v.Add(field, msg)
	}
}

func (v Violations) Empty() bool { return len(v) == 0 }

// Fieldsは並び順を固定して返す
func (v Violations) Fields() []string {
	fs := make([]string, 0, len(v))
	for f := range v {
		fs = append(fs, f)
	}
	sort.Strings(fs)
	return fs
}

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, f := range v.Fields() {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Requiredは空白だけの文字列も未入力とみなす
func (v Violations) Required(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, "must not be blank")
}

// MaxLenは文字数（バイトではない）で見る
func (v Violations) MaxLen(field, value string, max int) {
	v.Check(utf8.RuneCountInString(value) <= max, field, fmt.Sprintf("must be at most %d characters", max))
}

func (v Violations) MinLen(field, value string, min int) {
	v.Check(utf8.RuneCountInString(value) >= min, field, fmt.Sprintf("must be at least %d characters", min))
}

func (v Violations) Email(field, value string) {
	v.Check(IsEmail(value), field, "must be a well-formed email address")
}

func (v Violations) Between(field string, value, min, max int64) {
	v.Check(value >= min && value <= max, field, fmt.Sprintf("must be between %d and %d", min, max))
}

// IsEmailは「名前 <addr>」形式を認めない
func IsEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}
