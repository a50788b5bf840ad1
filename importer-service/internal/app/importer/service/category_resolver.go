package service

import (
	"strings"

	"techcatalog/importer-service/internal/app/importer/entity"
)

// FallbackCategory - категория по умолчанию, когда определить ее не удалось
const FallbackCategory = "Miscellaneous"

// categoryPrefixes - префиксы в key_features, после которых идет сырая категория
// Порядок фиксирован: выигрывает первый совпавший префикс первой подходящей строки
var categoryPrefixes = []string{
	"Type:", "Form Factor:", "Category:", "Product Type:",
	"Device Type:", "Item Type:",
}

type synonymRule struct {
	key       string // подстрока в нижнем регистре
	canonical string
}

// categorySynonyms - таблица нормализации сырых названий категорий
// Порядок важен: при частичном совпадении выигрывает первое правило,
// ключ которого содержится в сыром названии
var categorySynonyms = []synonymRule{
	// Phones
	{"smart phones", "Smartphones"},
	{"smartphone", "Smartphones"},
	{"phone", "Smartphones"},
	{"mobile phone", "Smartphones"},
	{"cell phone", "Smartphones"},
	{"cellular phone", "Smartphones"},

	// Audio
	{"headphones", "Headphones"},
	{"earphones", "Headphones"},
	{"earbuds", "Headphones"},
	{"headset", "Headphones"},
	{"speakers", "Speakers"},
	{"audio", "Audio Equipment"},

	// TV & Displays
	{"tv", "TVs"},
	{"television", "TVs"},
	{"monitor", "Monitors"},
	{"display", "Displays"},

	// Computers
	{"laptop", "Laptops"},
	{"notebook", "Laptops"},
	{"desktop", "Desktops"},
	{"computer", "Computers"},
	{"pc", "Computers"},

	// Gaming
	{"gaming", "Gaming"},
	{"console", "Gaming Consoles"},
	{"xbox", "Gaming Consoles"},
	{"playstation", "Gaming Consoles"},
	{"nintendo", "Gaming Consoles"},

	// Accessories
	{"case", "Accessories"},
	{"cover", "Accessories"},
	{"charger", "Accessories"},
	{"cable", "Accessories"},
	{"adapter", "Accessories"},

	// Tablets
	{"tablet", "Tablets"},
	{"ipad", "Tablets"},

	// Wearables
	{"watch", "Wearables"},
	{"smartwatch", "Wearables"},
	{"fitness tracker", "Wearables"},
}

type titleRule struct {
	category string
	keywords []string
}

// titleKeywords - определение категории по заголовку товара (последний шанс
// перед fallback). Порядок таблицы задает приоритет категорий
var titleKeywords = []titleRule{
	{"Smartphones", []string{"smartphone", "phone", "iphone", "galaxy", "pixel"}},
	{"Headphones", []string{"headphone", "earphone", "earbud", "headset"}},
	{"TVs", []string{"tv", "television", "smart tv"}},
	{"Laptops", []string{"laptop", "notebook", "macbook"}},
	{"Tablets", []string{"tablet", "ipad"}},
	{"Wearables", []string{"watch", "smartwatch"}},
	{"Speakers", []string{"speaker", "bluetooth speaker"}},
	{"Gaming", []string{"gaming", "xbox", "playstation", "nintendo"}},
}

// ResolveCategory определяет каноническое имя категории для записи батча
// Чистая функция без обращений к хранилищу; персистентность - забота сервиса
// Приоритет источников: явное поле category, префиксы в key_features,
// ключевые слова заголовка, fallback
func ResolveCategory(rec *entity.BatchRecord) string {
	if rec.Category != "" {
		return NormalizeCategory(rec.Category)
	}

	for _, feature := range rec.KeyFeatures {
		for _, prefix := range categoryPrefixes {
			if strings.HasPrefix(feature, prefix) {
				_, raw, _ := strings.Cut(feature, ":")
				return NormalizeCategory(strings.TrimSpace(raw))
			}
		}
	}

	if category := detectCategoryFromTitle(strings.ToLower(rec.Title)); category != "" {
		return category
	}

	return FallbackCategory
}

// NormalizeCategory приводит сырое название категории к каноническому
// Сначала точное совпадение с таблицей синонимов, затем частичное
// (ключ - подстрока сырого названия), иначе каждое слово с заглавной буквы
func NormalizeCategory(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return FallbackCategory
	}

	for _, rule := range categorySynonyms {
		if rule.key == raw {
			return rule.canonical
		}
	}

	for _, rule := range categorySynonyms {
		if strings.Contains(raw, rule.key) {
			return rule.canonical
		}
	}

	return capitalizeWords(raw)
}

// detectCategoryFromTitle ищет ключевые слова категорий в заголовке
// Возвращает пустую строку если ничего не найдено
func detectCategoryFromTitle(titleLower string) string {
	for _, rule := range titleKeywords {
		for _, keyword := range rule.keywords {
			if strings.Contains(titleLower, keyword) {
				return rule.category
			}
		}
	}
	return ""
}

// capitalizeWords делает первую букву каждого слова заглавной
func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		r := []rune(word)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
