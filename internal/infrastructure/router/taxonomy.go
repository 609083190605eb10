package router

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

// Taxonomy maps document categories to target folders and the filename
// keywords used for subtype placement and low-confidence fallback routing.
type Taxonomy struct {
	Categories map[string]Category `yaml:"categories"`
}

type Category struct {
	Folder     string               `yaml:"folder"`
	Subfolders map[string]Subfolder `yaml:"subfolders"`
}

type Subfolder struct {
	Folder   string   `yaml:"folder"`
	Keywords []string `yaml:"keywords"`
}

// DefaultTaxonomy mirrors the folder layout the ingestion expects on disk.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{Categories: map[string]Category{
		"norms": {Folder: "01_НОРМАТИВЫ", Subfolders: map[string]Subfolder{
			"gost":    {Folder: "ГОСТ", Keywords: []string{"гост", "gost"}},
			"snip":    {Folder: "СНиП", Keywords: []string{"снип", "snip"}},
			"sp":      {Folder: "СП", Keywords: []string{"сп ", "sp_", "свод правил"}},
			"general": {Folder: "Общие", Keywords: nil},
		}},
		"estimates": {Folder: "02_СМЕТЫ", Subfolders: map[string]Subfolder{
			"gesn":    {Folder: "ГЭСН", Keywords: []string{"гэсн", "gesn"}},
			"fer":     {Folder: "ФЕР", Keywords: []string{"фер", "fer"}},
			"ter":     {Folder: "ТЕР", Keywords: []string{"тер", "ter"}},
			"local":   {Folder: "Локальные", Keywords: []string{"локальн", "лс-"}},
			"summary": {Folder: "Сводные", Keywords: []string{"сводн", "сср"}},
		}},
		"smeta": {Folder: "02_СМЕТЫ", Subfolders: map[string]Subfolder{
			"local":   {Folder: "Локальные", Keywords: []string{"локальн", "лс-"}},
			"summary": {Folder: "Сводные", Keywords: []string{"сводн", "сср"}},
		}},
		"projects": {Folder: "03_ПРОЕКТЫ", Subfolders: map[string]Subfolder{
			"ppr":            {Folder: "ППР", Keywords: []string{"ппр", "производства работ"}},
			"pto":            {Folder: "ПТО", Keywords: []string{"пто"}},
			"drawings":       {Folder: "Чертежи", Keywords: []string{"чертеж", "план", "схема"}},
			"specifications": {Folder: "Спецификации", Keywords: []string{"спецификац", "ведомост"}},
		}},
		"ppr": {Folder: "03_ПРОЕКТЫ", Subfolders: map[string]Subfolder{
			"ppr": {Folder: "ППР", Keywords: []string{"ппр"}},
		}},
		"contracts": {Folder: "04_ДОГОВОРЫ", Subfolders: nil},
		"finance":   {Folder: "05_ФИНАНСЫ", Subfolders: nil},
		"safety":    {Folder: "06_ОХРАНА_ТРУДА", Subfolders: nil},
		"hr":        {Folder: "07_КАДРЫ", Subfolders: nil},
		"ecology":   {Folder: "08_ЭКОЛОГИЯ", Subfolders: nil},
		"education": {Folder: "09_ОБУЧЕНИЕ", Subfolders: nil},
		"other":     {Folder: "99_ПРОЧЕЕ", Subfolders: nil},
	}}
}

// LoadTaxonomy reads a YAML taxonomy; an empty path returns the default.
func LoadTaxonomy(path string) (Taxonomy, error) {
	if path == "" {
		return DefaultTaxonomy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, domain.WrapError(domain.ErrValidation, "read taxonomy file", err)
	}
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Taxonomy{}, domain.WrapError(domain.ErrValidation, "parse taxonomy file", err)
	}
	if len(t.Categories) == 0 {
		return DefaultTaxonomy(), nil
	}
	return t, nil
}

// relPath resolves the folder for a classified document. Subtype wins when
// it names a known subfolder; otherwise filename keywords decide; otherwise
// the category root.
func (t Taxonomy) relPath(info domain.DocTypeInfo, filename string) string {
	cat, ok := t.Categories[string(info.Type)]
	if !ok {
		cat = t.Categories["other"]
	}
	if len(cat.Subfolders) == 0 {
		return cat.Folder
	}
	if sub, ok := cat.Subfolders[info.Subtype]; ok {
		return cat.Folder + string(os.PathSeparator) + sub.Folder
	}
	if sub, ok := matchKeywords(cat.Subfolders, filename); ok {
		return cat.Folder + string(os.PathSeparator) + sub.Folder
	}
	if sub, ok := cat.Subfolders["general"]; ok {
		return cat.Folder + string(os.PathSeparator) + sub.Folder
	}
	return cat.Folder
}

// keywordFallback guesses a category from the filename alone. Used when
// classification confidence is too low to trust. The most specific
// (longest) matching keyword wins across all categories.
func (t Taxonomy) keywordFallback(filename string) (domain.DocType, string, bool) {
	lower := strings.ToLower(filename)

	bestLen := 0
	var bestCat, bestSub string
	for _, name := range sortedKeys(t.Categories) {
		if name == "other" {
			continue
		}
		cat := t.Categories[name]
		for _, subName := range sortedKeys(cat.Subfolders) {
			for _, kw := range cat.Subfolders[subName].Keywords {
				if len(kw) > bestLen && strings.Contains(lower, kw) {
					bestLen = len(kw)
					bestCat, bestSub = name, subName
				}
			}
		}
	}
	if bestLen == 0 {
		return domain.TypeOther, "", false
	}
	return domain.DocType(bestCat), bestSub, true
}

// matchKeywords picks the subfolder whose longest keyword occurs in the
// filename. Key order breaks exact-length ties so routing is stable.
func matchKeywords(subfolders map[string]Subfolder, filename string) (Subfolder, bool) {
	lower := strings.ToLower(filename)

	bestLen := 0
	var best Subfolder
	for _, name := range sortedKeys(subfolders) {
		for _, kw := range subfolders[name].Keywords {
			if len(kw) > bestLen && strings.Contains(lower, kw) {
				bestLen = len(kw)
				best = subfolders[name]
			}
		}
	}
	return best, bestLen > 0
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
