package bible

import (
	_ "embed"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed canon.yaml
var canonYAML []byte

// Book is one entry of the 66-book Protestant canon.
type Book struct {
	Name      string `yaml:"name" json:"name"`
	Chapters  int    `yaml:"chapters" json:"chapters"`
	Testament string `yaml:"testament" json:"testament"`
}

type canonFile struct {
	Books []Book `yaml:"books"`
}

// CanonBookCount is the expected number of books in a full scrape.
const CanonBookCount = 66

var (
	canonOnce  sync.Once
	canonBooks []Book
	canonIndex map[string]Book
)

func loadCanon() {
	var f canonFile
	if err := yaml.Unmarshal(canonYAML, &f); err != nil {
		// The canon file is embedded at build time; a parse failure is a
		// programming error, not a runtime condition.
		panic("bible: parse canon.yaml: " + err.Error())
	}
	canonBooks = f.Books
	canonIndex = make(map[string]Book, len(f.Books))
	for _, b := range f.Books {
		canonIndex[normalizeKey(b.Name)] = b
	}
}

func normalizeKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Books returns the canon in traditional order.
func Books() []Book {
	canonOnce.Do(loadCanon)
	out := make([]Book, len(canonBooks))
	copy(out, canonBooks)
	return out
}

// LookupBook finds a canon entry by case-insensitive name.
func LookupBook(name string) (Book, bool) {
	canonOnce.Do(loadCanon)
	b, ok := canonIndex[normalizeKey(name)]
	return b, ok
}

var titleCaser = cases.Title(language.English)

// NormalizeBookName maps a route token like "john" or "song of solomon" to
// its canonical spelling. Names outside the canon are title-cased as given so
// lookups against the store stay predictable.
func NormalizeBookName(name string) string {
	name = strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " ")
	if b, ok := LookupBook(name); ok {
		return b.Name
	}
	return titleCaser.String(name)
}
