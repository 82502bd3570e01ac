package domain

import "strings"

const (
	CategoryMakanan      = "makanan"
	CategoryTransportasi = "transportasi"
	CategoryBelanja      = "belanja"
	CategoryHiburan      = "hiburan"
	CategoryKesehatan    = "kesehatan"
	CategoryPendidikan   = "pendidikan"
	CategoryLainnya      = "lainnya"
)

var Categories = []string{
	CategoryMakanan, CategoryTransportasi, CategoryBelanja, CategoryHiburan,
	CategoryKesehatan, CategoryPendidikan, CategoryLainnya,
}

func IsCategory(s string) bool {
	for _, c := range Categories {
		if c == s {
			return true
		}
	}
	return false
}

type keyword struct {
	word     string
	category string
}

// keywords is scanned in order for partial matches, so earlier entries win.
var keywords = []keyword{
	{"food", CategoryMakanan}, {"restaurant", CategoryMakanan}, {"grocery", CategoryMakanan},
	{"groceries", CategoryMakanan}, {"dining", CategoryMakanan}, {"cafe", CategoryMakanan},
	{"fastfood", CategoryMakanan}, {"kfc", CategoryMakanan}, {"mcdonald", CategoryMakanan},
	{"pizza", CategoryMakanan}, {"starbucks", CategoryMakanan},

	{"transport", CategoryTransportasi}, {"transportation", CategoryTransportasi}, {"taxi", CategoryTransportasi},
	{"bus", CategoryTransportasi}, {"train", CategoryTransportasi}, {"fuel", CategoryTransportasi},
	{"gasoline", CategoryTransportasi}, {"parking", CategoryTransportasi}, {"toll", CategoryTransportasi},
	{"ojek", CategoryTransportasi}, {"gojek", CategoryTransportasi}, {"grab", CategoryTransportasi},

	{"shopping", CategoryBelanja}, {"retail", CategoryBelanja}, {"store", CategoryBelanja},
	{"supermarket", CategoryBelanja}, {"mall", CategoryBelanja}, {"clothing", CategoryBelanja},
	{"electronics", CategoryBelanja}, {"indomaret", CategoryBelanja}, {"alfamart", CategoryBelanja},

	{"entertainment", CategoryHiburan}, {"movie", CategoryHiburan}, {"cinema", CategoryHiburan},
	{"game", CategoryHiburan}, {"sports", CategoryHiburan}, {"recreation", CategoryHiburan},
	{"gym", CategoryHiburan}, {"streaming", CategoryHiburan},

	{"health", CategoryKesehatan}, {"medical", CategoryKesehatan}, {"pharmacy", CategoryKesehatan},
	{"hospital", CategoryKesehatan}, {"doctor", CategoryKesehatan}, {"medicine", CategoryKesehatan},
	{"clinic", CategoryKesehatan},

	{"education", CategoryPendidikan}, {"school", CategoryPendidikan}, {"university", CategoryPendidikan},
	{"course", CategoryPendidikan}, {"book", CategoryPendidikan}, {"training", CategoryPendidikan},
}

// MapCategory normalizes a free-text category (for example one produced by
// receipt recognition) onto the fixed set. Known categories pass through.
// ok is false when nothing matches.
func MapCategory(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	if IsCategory(s) {
		return s, true
	}
	for _, k := range keywords {
		if k.word == s {
			return k.category, true
		}
	}
	for _, k := range keywords {
		if strings.Contains(s, k.word) || strings.Contains(k.word, s) {
			return k.category, true
		}
	}
	return "", false
}
