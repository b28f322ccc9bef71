package tag

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/weiwangfds/notebox/config"
	"github.com/weiwangfds/notebox/internal/database"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
)

// tagSeparator 原始标签字符串的分隔符
const tagSeparator = ","

// ParseTagString 将逗号分隔的标签字符串拆分为候选名称
// 每段去除首尾空白并转为小写，丢弃空段，保持首次出现的顺序，不去重
func ParseTagString(raw string) []string {
	parts := strings.Split(raw, tagSeparator)
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := NormalizeTagName(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// NormalizeTagName 返回标签的规范名称（去空白、小写），作为唯一性判断依据
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DedupeNames 按规范名称去重，保留第一次出现的位置
func DedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = NormalizeTagName(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// FormatTagString 将标签列表还原为 "a, b" 形式，用于编辑表单回显
func FormatTagString(tags []database.Tag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return strings.Join(names, tagSeparator+" ")
}

// Validator 标签校验器
// 超长的标签会使整个请求失败，不做截断
type Validator struct {
	rules    config.TagConfig
	validate *validator.Validate
}

// NewValidator 创建标签校验器
func NewValidator(rules config.TagConfig) *Validator {
	v := validator.New()
	// 名称里不能出现控制字符和分隔符，否则无法从字符串形式还原
	_ = v.RegisterValidation("tagname", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if unicode.IsControl(r) || string(r) == tagSeparator {
				return false
			}
		}
		return true
	})
	return &Validator{rules: rules, validate: v}
}

// Rules 返回当前校验规则
func (v *Validator) Rules() config.TagConfig {
	return v.rules
}

// ValidateTagString 校验原始标签字符串并返回解析出的候选名称
func (v *Validator) ValidateTagString(raw string) ([]string, error) {
	if err := v.validate.Var(raw, fmt.Sprintf("max=%d", v.rules.MaxRawLength)); err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidTag,
			"total tags length cannot exceed %d characters", v.rules.MaxRawLength)
	}

	names := ParseTagString(raw)
	if err := v.ValidateNames(names); err != nil {
		return nil, err
	}
	return names, nil
}

// ValidateTagList 校验以列表形式提交的名称，按逗号拼接后的总长度与原始字符串使用同一上限
func (v *Validator) ValidateTagList(names []string) error {
	if err := v.validate.Var(strings.Join(names, tagSeparator), fmt.Sprintf("max=%d", v.rules.MaxRawLength)); err != nil {
		return apperrors.Newf(apperrors.ErrInvalidTag,
			"total tags length cannot exceed %d characters", v.rules.MaxRawLength)
	}
	return v.ValidateNames(names)
}

// ValidateNames 逐个校验已规范化的名称，任一不合法即返回校验错误
func (v *Validator) ValidateNames(names []string) error {
	for _, name := range names {
		if err := v.ValidateName(name); err != nil {
			return err
		}
	}
	return nil
}

// ValidateName 校验单个标签名称的长度和字符
func (v *Validator) ValidateName(name string) error {
	lengthRule := fmt.Sprintf("min=%d,max=%d", v.rules.NameMinLength, v.rules.NameMaxLength)
	if err := v.validate.Var(name, lengthRule); err != nil {
		return apperrors.Newf(apperrors.ErrInvalidTag,
			"tag %q must be between %d and %d characters", name, v.rules.NameMinLength, v.rules.NameMaxLength)
	}
	if err := v.validate.Var(name, "tagname"); err != nil {
		return apperrors.Newf(apperrors.ErrInvalidTag, "tag %q contains invalid characters", name)
	}
	return nil
}

// ValidateDescription 校验标签描述长度
func (v *Validator) ValidateDescription(description string) error {
	if err := v.validate.Var(description, fmt.Sprintf("max=%d", v.rules.DescriptionMaxLen)); err != nil {
		return apperrors.Newf(apperrors.ErrInvalidTag,
			"description cannot exceed %d characters", v.rules.DescriptionMaxLen)
	}
	return nil
}
