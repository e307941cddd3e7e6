package i18n

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/clatterlab/clatter/internal/common/cnst"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

// Translator resolves message ids into localized user-facing strings.
// The built-in catalogs (Russian default, English) are embedded; extra
// catalogs may be loaded from a directory at startup.
type Translator struct {
	bundle      *goi18n.Bundle
	defaultLang string

	mu         sync.RWMutex
	localizers map[string]*goi18n.Localizer
}

// New creates a translator with the embedded catalogs loaded.
func New(defaultLang string) (*Translator, error) {
	if defaultLang == "" {
		defaultLang = cnst.LangRU
	}
	bundle := goi18n.NewBundle(language.Russian)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read embedded locales: %w", err)
	}
	for _, entry := range entries {
		data, err := localeFS.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded locale %s: %w", entry.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, entry.Name()); err != nil {
			return nil, fmt.Errorf("parse embedded locale %s: %w", entry.Name(), err)
		}
	}

	return &Translator{
		bundle:      bundle,
		defaultLang: defaultLang,
		localizers:  make(map[string]*goi18n.Localizer),
	}, nil
}

// LoadTranslations loads additional toml catalogs from a directory,
// overriding embedded messages with the same ids.
func (t *Translator) LoadTranslations(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		if _, err := t.bundle.LoadMessageFile(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("load locale %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// DefaultLang returns the configured default language tag.
func (t *Translator) DefaultLang() string {
	return t.defaultLang
}

// Translate resolves a message id for the given language. A missing
// translation falls back to the message id itself so the wire never
// carries an empty payload.
func (t *Translator) Translate(lang, messageID string, data map[string]any) string {
	if messageID == "" {
		return ""
	}
	if lang == "" {
		lang = t.defaultLang
	}
	msg, err := t.localizer(lang).Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil || msg == "" {
		return messageID
	}
	return msg
}

// T resolves a message id in the default language.
func (t *Translator) T(messageID string, data map[string]any) string {
	return t.Translate(t.defaultLang, messageID, data)
}

func (t *Translator) localizer(lang string) *goi18n.Localizer {
	t.mu.RLock()
	loc, ok := t.localizers[lang]
	t.mu.RUnlock()
	if ok {
		return loc
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if loc, ok = t.localizers[lang]; ok {
		return loc
	}
	loc = goi18n.NewLocalizer(t.bundle, lang, t.defaultLang)
	t.localizers[lang] = loc
	return loc
}
