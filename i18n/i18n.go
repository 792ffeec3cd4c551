// Package i18n resolves symbolic string-resource keys to localized display text.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Fallback is used for keys missing from the requested locale.
var Fallback = language.English

// Catalog is a read-only string table for one resolved locale.
type Catalog struct {
	tag      language.Tag
	tables   map[language.Tag]map[string]string
	printer  *message.Printer
	fallback *message.Printer
}

// New loads the embedded string tables and resolves locale against them.
// An empty locale selects the fallback language. Unsupported locales resolve
// to the closest match, or the fallback if none is close.
func New(locale string) (*Catalog, error) {
	tables, err := loadTables()
	if err != nil {
		return nil, err
	}
	return build(tables, locale)
}

// build compiles tables into a message catalog and resolves locale.
// Table values are plain text, so printf verbs are escaped before they reach
// the catalog.
func build(tables map[language.Tag]map[string]string, locale string) (*Catalog, error) {
	if _, ok := tables[Fallback]; !ok {
		return nil, fmt.Errorf("no string table for fallback locale %s", Fallback)
	}

	b := catalog.NewBuilder(catalog.Fallback(Fallback))
	for tag, table := range tables {
		for key, msg := range table {
			if err := b.SetString(tag, key, strings.ReplaceAll(msg, "%", "%%")); err != nil {
				return nil, fmt.Errorf("adding %s/%s: %w", tag, key, err)
			}
		}
	}

	tag := Fallback
	if locale != "" {
		want, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parsing locale %q: %w", locale, err)
		}
		tag = match(want, tables)
	}

	return &Catalog{
		tag:      tag,
		tables:   tables,
		printer:  message.NewPrinter(tag, message.Catalog(b)),
		fallback: message.NewPrinter(Fallback, message.Catalog(b)),
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(locale string) *Catalog {
	c, err := New(locale)
	if err != nil {
		panic(fmt.Sprintf("i18n: %v", err))
	}
	return c
}

// loadTables parses every embedded locale file. The file name is the BCP 47 tag.
func loadTables() (map[language.Tag]map[string]string, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("reading locales: %w", err)
	}

	tables := make(map[language.Tag]map[string]string, len(entries))
	for _, e := range entries {
		name := e.Name()
		tag, err := language.Parse(strings.TrimSuffix(name, path.Ext(name)))
		if err != nil {
			return nil, fmt.Errorf("locale file %s: %w", name, err)
		}

		data, err := localeFS.ReadFile(path.Join("locales", name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		table := make(map[string]string)
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		tables[tag] = table
	}
	return tables, nil
}

func match(want language.Tag, tables map[language.Tag]map[string]string) language.Tag {
	supported := sortedTags(tables)
	// Matcher treats the first entry as the default.
	for i, t := range supported {
		if t == Fallback {
			supported[0], supported[i] = supported[i], supported[0]
			break
		}
	}

	_, idx, conf := language.NewMatcher(supported).Match(want)
	if conf == language.No {
		return Fallback
	}
	return supported[idx]
}

func sortedTags(tables map[language.Tag]map[string]string) []language.Tag {
	tags := make([]language.Tag, 0, len(tables))
	for t := range tables {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].String() < tags[j].String() })
	return tags
}

// Language returns the resolved locale.
func (c *Catalog) Language() language.Tag {
	return c.tag
}

// Supported returns the locales with string tables, sorted by tag.
func (c *Catalog) Supported() []language.Tag {
	return sortedTags(c.tables)
}

// Lookup returns the display text for key and whether it exists in the
// resolved locale or the fallback.
func (c *Catalog) Lookup(key string) (string, bool) {
	if _, ok := c.tables[c.tag][key]; ok {
		return c.printer.Sprintf(key), true
	}
	if _, ok := c.tables[Fallback][key]; ok {
		return c.fallback.Sprintf(key), true
	}
	return "", false
}

// String returns the display text for key, or the key itself if unknown.
func (c *Catalog) String(key string) string {
	if s, ok := c.Lookup(key); ok {
		return s
	}
	return key
}
