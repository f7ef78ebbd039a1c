package validate

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Reason 校验失败原因
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonRequired Reason = "required"
	ReasonTooLong  Reason = "too_long"
	ReasonNotEmoji Reason = "not_emoji"
)

// Result 校验结果；Reason 为空表示通过
type Result struct {
	Field   string
	Reason  Reason
	Message string
}

func (r Result) OK() bool { return r.Reason == ReasonNone }

const contentField = "content"

// Validator 帖子内容校验器，emoji 规则由 Matcher 提供
type Validator struct {
	v         *validator.Validate
	maxLength int
	rule      string
}

func New(matcher Matcher, maxLength int) *Validator {
	if matcher == nil {
		matcher = EmojiOnly
	}
	if maxLength <= 0 {
		maxLength = 255
	}
	v := validator.New()
	// 仅在注册重复 tag 时返回错误
	_ = v.RegisterValidation("emoji", func(fl validator.FieldLevel) bool {
		return matcher(fl.Field().String())
	})
	return &Validator{
		v:         v,
		maxLength: maxLength,
		rule:      fmt.Sprintf("required,min=1,max=%d,emoji", maxLength),
	}
}

// Content 按 required -> 长度 -> emoji 的顺序校验，返回第一个失败项
func (val *Validator) Content(content string) Result {
	err := val.v.Var(content, val.rule)
	if err == nil {
		return Result{}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return Result{Field: contentField, Reason: ReasonNotEmoji, Message: "Only emojis are allowed"}
	}
	switch verrs[0].Tag() {
	case "required", "min":
		return Result{Field: contentField, Reason: ReasonRequired, Message: "Content is required"}
	case "max":
		return Result{Field: contentField, Reason: ReasonTooLong, Message: fmt.Sprintf("Content must be at most %d characters", val.maxLength)}
	default:
		return Result{Field: contentField, Reason: ReasonNotEmoji, Message: "Only emojis are allowed"}
	}
}
