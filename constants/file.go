package constants

import "strings"

// Formats for source artifacts.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// Default allowed extensions per target type (lowercased, no dot).
var (
	PDFExtensions   = []string{"pdf"}
	ImageExtensions = []string{"jpg", "jpeg"}
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to a source format, or "" if unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png":
		return IMAGE
	default:
		return ""
	}
}
