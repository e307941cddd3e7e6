package cnst

// Supported interface languages.
const (
	LangRU = "ru"
	LangEN = "en"
)
