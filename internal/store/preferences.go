package store

import (
	"context"
	"errors"
	"log"

	"github.com/i474232898/worldview/internal/worldview"
)

// LanguageKey is the fixed storage key of the UI language preference.
const LanguageKey = "language"

// Preferences persists the UI language.
type Preferences struct {
	kv  KV
	def worldview.Language
}

// NewPreferences creates Preferences falling back to def.
func NewPreferences(kv KV, def worldview.Language) *Preferences {
	if !def.Supported() {
		def = worldview.LangEnglish
	}
	return &Preferences{kv: kv, def: def}
}

// Language returns the stored language, or the default when nothing valid is stored.
func (p *Preferences) Language(ctx context.Context) worldview.Language {
	raw, err := p.kv.Get(ctx, LanguageKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("ERROR: loading language preference: %v", err)
		}
		return p.def
	}
	lang := worldview.Language(raw)
	if !lang.Supported() {
		return p.def
	}
	return lang
}

// SaveLanguage stores lang.
func (p *Preferences) SaveLanguage(ctx context.Context, lang worldview.Language) error {
	return p.kv.Set(ctx, LanguageKey, string(lang))
}

var _ worldview.LanguageStore = (*Preferences)(nil)
