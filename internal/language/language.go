package language

// Language is a spoken language the patient may answer in
type Language struct {
	Code       string // ISO 639 code passed to whisper (e.g. "zh", "yue")
	Name       string // English name
	NativeName string // Native name (e.g. "中文")

	// BaiduDevPID selects the Baidu short-speech model; zero means Baidu
	// cannot recognize the language.
	BaiduDevPID int
}

// Auto leaves language detection to the recognizer. Baidu has no auto mode.
var Auto = Language{Code: "", Name: "Auto-detect", NativeName: ""}

// Baidu short-speech models
const (
	DevPIDMandarinPro = 80001
	DevPIDMandarin    = 1537
	DevPIDEnglish     = 1737
	DevPIDCantonese   = 1637
)

var languages = []Language{
	{Code: "zh", Name: "Chinese", NativeName: "中文", BaiduDevPID: DevPIDMandarinPro},
	{Code: "yue", Name: "Cantonese", NativeName: "粵語", BaiduDevPID: DevPIDCantonese},
	{Code: "en", Name: "English", NativeName: "English", BaiduDevPID: DevPIDEnglish},
	{Code: "ja", Name: "Japanese", NativeName: "日本語"},
	{Code: "ko", Name: "Korean", NativeName: "한국어"},
	{Code: "vi", Name: "Vietnamese", NativeName: "Tiếng Việt"},
	{Code: "th", Name: "Thai", NativeName: "ไทย"},
	{Code: "ms", Name: "Malay", NativeName: "Bahasa Melayu"},
	{Code: "ru", Name: "Russian", NativeName: "Русский"},
	{Code: "fr", Name: "French", NativeName: "Français"},
	{Code: "de", Name: "German", NativeName: "Deutsch"},
	{Code: "es", Name: "Spanish", NativeName: "Español"},
}

var codeIndex map[string]Language

func init() {
	codeIndex = make(map[string]Language, len(languages)+1)
	codeIndex[""] = Auto
	for _, lang := range languages {
		codeIndex[lang.Code] = lang
	}
}

// FromCode returns the Language for the given code.
// Returns Auto if code is not found.
func FromCode(code string) Language {
	if lang, ok := codeIndex[code]; ok {
		return lang
	}
	return Auto
}

func List() []Language {
	result := make([]Language, len(languages))
	copy(result, languages)
	return result
}

func Codes() []string {
	codes := make([]string, len(languages))
	for i, lang := range languages {
		codes[i] = lang.Code
	}
	return codes
}

// BaiduCodes returns the codes Baidu recognition accepts
func BaiduCodes() []string {
	var codes []string
	for _, lang := range languages {
		if lang.BaiduDevPID != 0 {
			codes = append(codes, lang.Code)
		}
	}
	return codes
}

// IsValidCode returns true if the code is recognized (including empty for auto)
func IsValidCode(code string) bool {
	_, ok := codeIndex[code]
	return ok
}

// BaiduDevPID returns the Baidu model for code.
func BaiduDevPID(code string) (int, bool) {
	lang, ok := codeIndex[code]
	if !ok || lang.BaiduDevPID == 0 {
		return 0, false
	}
	return lang.BaiduDevPID, true
}
