// Пакет templates — встроенные HTML-шаблоны страниц UI.
// Каждая страница парсится вместе с layout.html в отдельный набор шаблонов.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/blazen1013/setting/internal/domain/editor"
	"github.com/blazen1013/setting/internal/domain/status"
	"github.com/blazen1013/setting/internal/ui/i18n"
)

//go:embed *.html
var content embed.FS

// Имена страниц.
const (
	PageBrowser     = "browser"
	PageSelfService = "selfservice"
)

// Page — данные для layout.html.
type Page struct {
	// Lang — язык страницы
	Lang string
	// Languages — языки для переключателя
	Languages []string
	// Title — ключ каталога заголовка
	Title string
	// Alerts — ключи сообщений о неудачных загрузках
	Alerts []string
	// Data — срез состояния контроллера варианта
	Data any
}

// Renderer — набор разобранных страниц.
type Renderer struct {
	pages map[string]*template.Template
}

// New разбирает все страницы. Подписи и уведомления переводятся через bundle.
func New(bundle *i18n.Bundle) (*Renderer, error) {
	funcs := funcMap(bundle)
	r := &Renderer{pages: make(map[string]*template.Template)}

	for _, name := range []string{PageBrowser, PageSelfService} {
		tmpl, err := template.New("layout").Funcs(funcs).ParseFS(content, "layout.html", name+".html")
		if err != nil {
			return nil, fmt.Errorf("ошибка разбора шаблона %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render выполняет страницу name в буфер и пишет результат в w.
// При ошибке шаблона в w ничего не записывается.
func (r *Renderer) Render(w io.Writer, name string, page Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("неизвестная страница %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("ошибка рендеринга %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// funcMap — функции шаблонов.
func funcMap(bundle *i18n.Bundle) template.FuncMap {
	return template.FuncMap{
		"t": bundle.Translate,
		"tf": func(lang, key string, args ...any) string {
			return bundle.Translatef(lang, key, args...)
		},
		"statusLabel": func(lang string, code any) string {
			lookup := func(key string) (string, bool) { return bundle.Lookup(lang, key) }
			return status.NewLabeler(lookup).Label(fmt.Sprint(code))
		},
		"noticeText": func(lang string, n *editor.Notice) string {
			return NoticeText(bundle, lang, n)
		},
		"fieldInvalid": func(n *editor.Notice, field string) bool {
			if !n.IsError() {
				return false
			}
			for _, f := range n.Fields {
				if string(f) == field {
					return true
				}
			}
			return false
		},
		"formatTime": func(ts *time.Time) string {
			if ts == nil {
				return ""
			}
			return ts.Local().Format("2006-01-02 15:04")
		},
		"minPasswordLength": func() int { return editor.MinPasswordLength },
		"dict":              dict,
	}
}

// NoticeText возвращает текст уведомления на языке lang.
// Текст бэкенда (Detail) показывается как есть.
func NoticeText(bundle *i18n.Bundle, lang string, n *editor.Notice) string {
	if n == nil {
		return ""
	}
	if n.Detail != "" {
		return n.Detail
	}

	switch n.Key {
	case editor.KeyRequiredFields:
		labels := make([]string, 0, len(n.Fields))
		for _, f := range n.Fields {
			labels = append(labels, bundle.Translate(lang, "field."+string(f)))
		}
		return bundle.Translatef(lang, n.Key, strings.Join(labels, ", "))
	case editor.KeyPasswordTooShort:
		return bundle.Translatef(lang, n.Key, editor.MinPasswordLength)
	default:
		return bundle.Translate(lang, n.Key)
	}
}

// dict собирает map для передачи нескольких значений во вложенный шаблон.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: нечётное число аргументов")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: ключ %v не строка", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}
