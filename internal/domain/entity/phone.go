package entity

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidPhone = errors.New("invalid phone number")

var e164 = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

var phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// NormalizePhone returns phone in E.164 form.
// Separators are stripped and a leading 00 is read as +.
func NormalizePhone(phone string) (string, error) {
	p := phoneNoise.Replace(strings.TrimSpace(phone))
	if strings.HasPrefix(p, "00") {
		p = "+" + p[2:]
	}
	if !e164.MatchString(p) {
		return "", ErrInvalidPhone
	}
	return p, nil
}
