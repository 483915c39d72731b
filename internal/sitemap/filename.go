package sitemap

import (
	"strconv"
	"strings"
	"time"
)

// Filename format separators. They never appear inside a category.
const (
	// BlockSeparator separates the blocks of a sitemap filename.
	BlockSeparator = "_"

	// DateSeparator separates the fields of the date and time blocks.
	DateSeparator = "-"

	// FileExtension is the extension of every sitemap file.
	FileExtension = ".xml"
)

// timestampLayout renders as DD-MM-YYYY_HH-mm.
const timestampLayout = "02" + DateSeparator + "01" + DateSeparator + "2006" +
	BlockSeparator + "15" + DateSeparator + "04"

// FileName is the decoded form of a sitemap filename.
type FileName struct {
	Base     string
	Category string
	Sequence int
	Created  time.Time
}

// String encodes the name as <base>_<category>_<sequence>_<DD-MM-YYYY>_<HH-mm>.xml.
func (n FileName) String() string {
	var sb strings.Builder
	sb.WriteString(n.Base)
	sb.WriteString(BlockSeparator)
	sb.WriteString(n.Category)
	sb.WriteString(BlockSeparator)
	sb.WriteString(strconv.Itoa(n.Sequence))
	sb.WriteString(BlockSeparator)
	sb.WriteString(n.Created.Format(timestampLayout))
	sb.WriteString(FileExtension)
	return sb.String()
}

// ParseFileName decodes name, which must start with base followed by the
// block separator. A non-nil *FilenameError is returned together with a
// usable FileName when only some blocks are malformed: the sequence number
// defaults to 0 and the creation time to the zero time.
func ParseFileName(base, name string) (FileName, error) {
	result := FileName{Base: base}

	stem := strings.TrimSuffix(name, FileExtension)
	rest, ok := strings.CutPrefix(stem, base+BlockSeparator)
	if !ok {
		return result, &FilenameError{Name: name, Reason: "missing base prefix " + base + BlockSeparator}
	}

	blocks := strings.Split(rest, BlockSeparator)
	result.Category = strings.TrimSpace(blocks[0])
	if result.Category == "" {
		return result, &FilenameError{Name: name, Reason: "empty category"}
	}

	if len(blocks) < 2 {
		return result, &FilenameError{Name: name, Reason: "missing sequence number"}
	}
	seq, err := strconv.Atoi(strings.TrimSpace(blocks[1]))
	if err != nil || seq < 0 {
		return result, &FilenameError{Name: name, Reason: "invalid sequence number " + strconv.Quote(blocks[1])}
	}
	result.Sequence = seq

	if len(blocks) != 4 {
		return result, &FilenameError{Name: name, Reason: "missing creation timestamp"}
	}
	created, err := time.ParseInLocation(timestampLayout, blocks[2]+BlockSeparator+blocks[3], time.Local)
	if err != nil {
		return result, &FilenameError{Name: name, Reason: "invalid creation timestamp"}
	}
	result.Created = created

	return result, nil
}

// ValidateCategory checks that category can be embedded in a filename.
func ValidateCategory(category string) error {
	c := strings.TrimSpace(category)
	if c == "" || strings.ContainsAny(c, BlockSeparator+`/\`) {
		return ErrInvalidCategory
	}
	return nil
}

// ValidateBaseFilename checks that base can prefix sitemap filenames and be
// used in a glob pattern.
func ValidateBaseFilename(base string) error {
	if base == "" || strings.ContainsAny(base, BlockSeparator+`/\*?[]{}`) {
		return ErrInvalidBaseFilename
	}
	return nil
}
