package worldview

import "fmt"

// Language is a UI locale tag.
type Language string

const (
	LangEnglish  Language = "en"
	LangChinese  Language = "zh"
	LangJapanese Language = "ja"
)

// Languages lists the supported UI locales.
var Languages = []Language{LangEnglish, LangChinese, LangJapanese}

// Supported reports whether l is one of Languages.
func (l Language) Supported() bool {
	for _, s := range Languages {
		if l == s {
			return true
		}
	}
	return false
}

// Labels is the set of UI strings for one locale.
type Labels struct {
	Title          string `json:"title"`
	Placeholder    string `json:"placeholder"`
	Search         string `json:"search"`
	UseLocation    string `json:"useLocation"`
	WeatherTitle   string `json:"weatherTitle"`
	CultureTitle   string `json:"cultureTitle"`
	LanguagesLabel string `json:"languagesLabel"`
	FoodLabel      string `json:"foodLabel"`
	GreetingLabel  string `json:"greetingLabel"`
	EtiquetteLabel string `json:"etiquetteLabel"`
	Error          string `json:"error"`
}

var labels = map[Language]Labels{
	LangEnglish: {
		Title:          "WorldView",
		Placeholder:    "Enter city name",
		Search:         "Search",
		UseLocation:    "📍 Use My Location",
		WeatherTitle:   "Weather in %s",
		CultureTitle:   "Cultural Info",
		LanguagesLabel: "Official Language(s):",
		FoodLabel:      "Famous Food:",
		GreetingLabel:  "Greeting:",
		EtiquetteLabel: "Etiquette:",
		Error:          "Could not load data for this location. Please try again.",
	},
	LangChinese: {
		Title:          "世界视图",
		Placeholder:    "输入城市名称",
		Search:         "搜索",
		UseLocation:    "📍 使用当前位置",
		WeatherTitle:   "天气：%s",
		CultureTitle:   "文化信息",
		LanguagesLabel: "官方语言：",
		FoodLabel:      "代表食物：",
		GreetingLabel:  "打招呼方式：",
		EtiquetteLabel: "礼仪：",
		Error:          "无法获取该位置的数据，请重试。",
	},
	LangJapanese: {
		Title:          "ワールドビュー",
		Placeholder:    "都市名を入力",
		Search:         "検索",
		UseLocation:    "📍 現在地を使う",
		WeatherTitle:   "天気：%s",
		CultureTitle:   "文化情報",
		LanguagesLabel: "公用語：",
		FoodLabel:      "名物料理：",
		GreetingLabel:  "挨拶：",
		EtiquetteLabel: "エチケット：",
		Error:          "この場所のデータを取得できませんでした。もう一度お試しください。",
	},
}

// LabelsFor returns the labels for l, falling back to English.
func LabelsFor(l Language) Labels {
	if lb, ok := labels[l]; ok {
		return lb
	}
	return labels[LangEnglish]
}

// WeatherTitleFor renders the weather panel heading for city.
func (lb Labels) WeatherTitleFor(city string) string {
	return fmt.Sprintf(lb.WeatherTitle, city)
}
