package tokenizer

import "strings"

// Extensions is the closed set of file extensions recognized in document text.
// Longer spellings come before their prefixes so that alternation in the
// tokenizing pattern tries "docx" before "doc".
var Extensions = []string{
	// Documents
	"pdf", "docx", "doc", "odt", "rtf", "txt", "md", "pages",
	// Spreadsheets
	"xlsx", "xlsm", "xls", "ods", "csv", "numbers",
	// Presentations
	"pptx", "ppt", "odp", "key",
	// Images
	"jpeg", "jpg", "png", "gif", "bmp", "tiff", "tif", "svg", "webp", "heic",
	// Archives
	"zip", "rar", "7z", "tar", "gz",
	// Audio and video
	"mp3", "wav", "m4a", "flac", "mp4", "mov", "avi", "mkv", "wmv",
	// Email
	"eml", "msg", "mbox",
	// Markup and data
	"xml", "json", "html", "htm",
}

var extensionSet = func() map[string]bool {
	set := make(map[string]bool, len(Extensions))
	for _, ext := range Extensions {
		set[ext] = true
	}
	return set
}()

// IsRecognizedExtension reports whether ext (with or without a leading dot,
// any case) is in the recognized set.
func IsRecognizedExtension(ext string) bool {
	return extensionSet[strings.ToLower(strings.TrimPrefix(ext, "."))]
}
