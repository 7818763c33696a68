package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Filenames must follow the convention
//
//	<dot-code>_<title>_Rev.<n>_<yyyy-mm-dd>.<ext>
//
// where the code is dot-separated positive integers and the title allows
// Unicode letters, digits, spaces and a small punctuation set. Matching
// is case-sensitive on the literal "_Rev.".
var filenamePattern = regexp.MustCompile(
	`^(\d+(?:\.\d+)*)_([\p{L}\p{N}][\p{L}\p{N} \-.,&()']*?)_Rev\.(\d+)_(\d{4}-\d{2}-\d{2})\.(\w+)$`,
)

// issueDateLayout is the ISO calendar date embedded in filenames.
const issueDateLayout = "2006-01-02"

// Identity is the structured document identity parsed from a filename.
type Identity struct {
	// Code is the dot-separated hierarchical code (e.g. "3.2.1").
	Code string

	// Title is the document title.
	Title string

	// Revision is the revision number from the filename.
	Revision int

	// IssueDate is the calendar date embedded in the filename.
	IssueDate time.Time

	// Extension is the lower-cased file extension.
	Extension string
}

// ParseFilename extracts a document identity from a filename.
// Returns nil when the filename does not match the convention; such
// files are excluded from synchronisation without raising an error.
func ParseFilename(name string) *Identity {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return nil
	}

	revision, err := strconv.Atoi(m[3])
	if err != nil || revision <= 0 {
		return nil
	}

	issued, err := time.Parse(issueDateLayout, m[4])
	if err != nil {
		return nil
	}

	return &Identity{
		Code:      m[1],
		Title:     m[2],
		Revision:  revision,
		IssueDate: issued,
		Extension: strings.ToLower(m[5]),
	}
}

// LineageKey derives the lineage key for this identity within a tenant.
// folderPath is the slash-joined folder path the file was found under;
// when non-empty it prefixes the code so folder structure is preserved.
func (i *Identity) LineageKey(tenantID, folderPath string) LineageKey {
	pathCode := i.Code
	if folderPath != "" {
		pathCode = folderPath + "/" + i.Code
	}
	return LineageKey{
		TenantID: tenantID,
		PathCode: pathCode,
		Title:    i.Title,
	}
}
