package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	i := GetInstance()

	assert.Equal(t, "标签不存在", i.Translate("tag_not_found", LangZhCN))
	assert.Equal(t, "Tag Not Found", i.Translate("tag_not_found", LangEnUS))
	assert.Equal(t, "no_such_key", i.Translate("no_such_key", LangEnUS))
}

func TestSupportedLanguages(t *testing.T) {
	i := GetInstance()

	assert.Equal(t, []string{LangEnUS, LangZhCN}, i.GetSupportedLanguages())
	assert.True(t, i.IsSupportedLanguage(LangZhCN))
	assert.False(t, i.IsSupportedLanguage("fr-FR"))

	i.SetDefaultLanguage("fr-FR")
	assert.Equal(t, LangEnUS, i.GetDefaultLanguage())

	i.SetDefaultLanguage(LangZhCN)
	t.Cleanup(func() { i.SetDefaultLanguage(LangEnUS) })
	assert.Equal(t, "参数错误", i.Translate("invalid_params", "fr-FR"))
}
