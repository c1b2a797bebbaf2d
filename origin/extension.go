package origin

import "strings"

// defaultExtension is used for anything that does not look like a file name.
const defaultExtension = ".html"

var imageFormats = map[string]string{
	".png":  "png",
	".jpg":  "jpg",
	".jpeg": "jpeg",
	".gif":  "gif",
}

// FileExtension returns the extension of the resource named by the URL,
// including the leading dot. Query and fragment are ignored.
// URLs without an extension in their last path segment (e.g. "http://x.com/page"
// or "http://x.com/a/") get ".html".
func FileExtension(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i != -1 {
		rawURL = rawURL[:i]
	}
	i := strings.LastIndex(rawURL, ".")
	if i == -1 {
		return defaultExtension
	}
	ext := rawURL[i:]
	if ext == "." || strings.Contains(ext, "/") {
		return defaultExtension
	}
	return ext
}

// ImageFormat returns the image format for an extension returned by FileExtension.
// Only png, jpg, jpeg and gif are images; the comparison ignores case.
func ImageFormat(ext string) (string, bool) {
	format, ok := imageFormats[strings.ToLower(ext)]
	return format, ok
}
