// Package i18n 提供国际化支持
// 负责管理错误消息的语言包和翻译功能
package i18n

import (
	"sort"
	"sync"

	"github.com/go-playground/locales/en_US"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/weiwangfds/notebox/internal/logger"
)

// 支持的语言
const (
	LangZhCN = "zh-CN"
	LangEnUS = "en-US"
)

var (
	instance *I18n
	once     sync.Once

	// 语言包存储
	translations = map[string]map[string]string{
		LangZhCN: {
			"success":               "成功",
			"internal_server_error": "服务器内部错误",
			"invalid_params":        "参数错误",
			"not_found":             "资源未找到",
			"conflict":              "资源冲突，请重试",
			"service_unavailable":   "存储服务不可用",

			"note_not_found":      "笔记不存在",
			"tag_not_found":       "标签不存在",
			"tag_already_exists":  "标签名称已存在",
			"invalid_tag":         "标签格式错误",
			"invalid_note":        "笔记格式错误",
			"database_connection": "数据库连接错误",

			"unknown_error": "未知错误",
		},
		LangEnUS: {
			"success":               "Success",
			"internal_server_error": "Internal Server Error",
			"invalid_params":        "Invalid Parameters",
			"not_found":             "Resource Not Found",
			"conflict":              "Conflict, Please Retry",
			"service_unavailable":   "Store Unavailable",

			"note_not_found":      "Note Not Found",
			"tag_not_found":       "Tag Not Found",
			"tag_already_exists":  "Tag Already Exists",
			"invalid_tag":         "Invalid Tag",
			"invalid_note":        "Invalid Note",
			"database_connection": "Database Connection Error",

			"unknown_error": "Unknown Error",
		},
	}
)

// I18n 国际化管理器
type I18n struct {
	mu          sync.RWMutex
	translators map[string]ut.Translator
	defaultLang string
}

// GetInstance 获取I18n单例
func GetInstance() *I18n {
	once.Do(func() {
		instance = &I18n{
			translators: make(map[string]ut.Translator),
			defaultLang: LangEnUS,
		}
		instance.initTranslators()
	})
	return instance
}

// initTranslators 初始化翻译器
func (i *I18n) initTranslators() {
	zhLocale := zh.New()
	enLocale := en_US.New()
	uni := ut.New(enLocale, enLocale, zhLocale)

	langMappings := map[string]string{
		LangZhCN: "zh",
		LangEnUS: "en_US",
	}

	for lang, locale := range langMappings {
		trans, found := uni.GetTranslator(locale)
		if !found {
			logger.Errorf("translator not found for language %s (locale: %s)", lang, locale)
			continue
		}
		i.translators[lang] = trans
	}
}

// Translate 根据键和语言获取翻译，找不到时回退到默认语言，再找不到返回键本身
func (i *I18n) Translate(key, lang string) string {
	i.mu.RLock()
	defaultLang := i.defaultLang
	_, supported := i.translators[lang]
	i.mu.RUnlock()

	if !supported {
		lang = defaultLang
	}

	if translation, found := translations[lang][key]; found {
		return translation
	}
	if lang != defaultLang {
		if translation, found := translations[defaultLang][key]; found {
			return translation
		}
	}

	logger.Warnf("translation missing: %s, lang: %s", key, lang)
	return key
}

// SetDefaultLanguage 设置默认语言，不支持的语言会被忽略
func (i *I18n) SetDefaultLanguage(lang string) {
	if !i.IsSupportedLanguage(lang) {
		logger.Warnf("unsupported language %s ignored", lang)
		return
	}
	i.mu.Lock()
	i.defaultLang = lang
	i.mu.Unlock()
}

// GetDefaultLanguage 获取默认语言
func (i *I18n) GetDefaultLanguage() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.defaultLang
}

// IsSupportedLanguage 检查语言是否支持
func (i *I18n) IsSupportedLanguage(lang string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, exists := i.translators[lang]
	return exists
}

// GetSupportedLanguages 获取支持的语言列表
func (i *I18n) GetSupportedLanguages() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	langs := make([]string, 0, len(i.translators))
	for lang := range i.translators {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
