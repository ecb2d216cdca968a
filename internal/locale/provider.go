// Package locale provides the display language as an explicit dependency
// instead of a global emitter: components hold a *Provider and subscribe to
// changes through it.
package locale

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/text/language"

	"github.com/gymledger/gymledger/internal/storage/kvstore"
)

const langKey = "APP_LANG"

// DefaultLang is used when nothing is persisted and the device locale does
// not match a supported language.
const DefaultLang = "en"

var supported = []language.Tag{
	language.English,
	language.Turkish,
}

var matcher = language.NewMatcher(supported)

// short weekday labels per language, keyed by the aggregator's label keys
var dayLabels = map[string]map[string]string{
	"en": {
		"mon": "Mon", "tue": "Tue", "wed": "Wed", "thu": "Thu",
		"fri": "Fri", "sat": "Sat", "sun": "Sun",
	},
	"tr": {
		"mon": "Pzt", "tue": "Sal", "wed": "Çar", "thu": "Per",
		"fri": "Cum", "sat": "Cmt", "sun": "Paz",
	},
}

// Provider holds the active language and notifies subscribers when it
// changes. The active language is persisted under APP_LANG.
type Provider struct {
	kv *kvstore.Store

	mu     sync.Mutex
	lang   string
	subs   map[int]func(lang string)
	nextID int
}

// New creates a provider. The initial language is the persisted one if
// present, otherwise the best supported match for deviceLocale (a BCP 47 tag
// like "tr-TR"), otherwise English.
func New(kv *kvstore.Store, deviceLocale string) (*Provider, error) {
	p := &Provider{kv: kv, subs: make(map[int]func(string))}

	raw, err := kv.Get(langKey)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		p.lang = matchLang(deviceLocale)
	case err != nil:
		return nil, errors.Wrap(err, "read app language")
	default:
		p.lang = matchLang(string(raw))
	}

	return p, nil
}

// Lang returns the active language code.
func (p *Provider) Lang() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lang
}

// SetLang switches the active language, persists it and notifies subscribers
// synchronously. Unknown codes are matched to the closest supported language.
func (p *Provider) SetLang(code string) error {
	lang := matchLang(code)

	p.mu.Lock()
	if lang == p.lang {
		p.mu.Unlock()
		return nil
	}

	p.lang = lang

	subs := make([]func(string), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	if err := p.kv.Set(langKey, []byte(lang)); err != nil {
		return errors.Wrap(err, "persist app language")
	}

	for _, fn := range subs {
		fn(lang)
	}

	return nil
}

// Subscribe registers a callback for language changes and returns a function
// that removes it.
func (p *Provider) Subscribe(fn func(lang string)) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.subs[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		delete(p.subs, id)
	}
}

// DayLabel returns the short weekday label for the aggregator's label key in
// the active language, falling back to English.
func (p *Provider) DayLabel(key string) string {
	return DayLabel(p.Lang(), key)
}

// DayLabel returns the short weekday label for key in the given language.
// Unknown languages fall back to English; unknown keys are returned as is.
func DayLabel(lang, key string) string {
	if table, ok := dayLabels[lang]; ok {
		if label, ok := table[key]; ok {
			return label
		}
	}

	if label, ok := dayLabels[DefaultLang][key]; ok {
		return label
	}

	return key
}

func matchLang(code string) string {
	if code == "" {
		return DefaultLang
	}

	tag, err := language.Parse(code)
	if err != nil {
		return DefaultLang
	}

	_, index, conf := matcher.Match(tag)
	if conf == language.No {
		return DefaultLang
	}

	base, _ := supported[index].Base()

	return base.String()
}
