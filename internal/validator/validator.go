package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// usernameRe allows letters, digits and @ . + - _ only.
var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

// IsUsername 是一个自定义的校验函数, registered as the "username" binding tag.
func IsUsername(fl validator.FieldLevel) bool {
	return usernameRe.MatchString(fl.Field().String())
}
