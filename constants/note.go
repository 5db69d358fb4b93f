package constants

// NoteStatus is the canonical status written into note front matter.
type NoteStatus string

// Stable values (store these exact strings in the front matter).
const (
	NoteStatusProcessed NoteStatus = "processed"
)

// DefaultCategory is the fallback bucket for documents no rule matched.
const DefaultCategory = "99_未分類"

// FulltextHeading marks the beginning of the recognized-text section of a
// note. Replacement-in-place greps for this exact string, so it must stay
// unique within generated notes.
const FulltextHeading = "## 全文（OCR）"

// PreviewHeading introduces the embedded original artifact at the end of a
// generated note.
const PreviewHeading = "## プレビュー"

// AutoTagPrefix namespaces machine-generated tags in note front matter.
const AutoTagPrefix = "auto/"
