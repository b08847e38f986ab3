// Package upload decides whether a selected file may be uploaded.
package upload

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileSize is the largest accepted upload, 100 MiB.
const MaxFileSize int64 = 100 * 1024 * 1024

// namePrefixLen is how many leading letters a file name needs.
const namePrefixLen = 4

// Candidate describes a file selected for upload. It carries metadata only.
type Candidate struct {
	Name        string
	Size        int64
	ContentType string
}

// CandidateFromPath stats path without reading its content.
func CandidateFromPath(path string) (Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Candidate{}, fmt.Errorf("%s is a directory", path)
	}
	name := filepath.Base(path)
	return Candidate{
		Name:        name,
		Size:        info.Size(),
		ContentType: contentTypeFor(name),
	}, nil
}

func contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".pdf" {
		return "application/pdf"
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

// Rule names the check a candidate failed.
type Rule string

const (
	RuleFormat Rule = "format"
	RuleName   Rule = "name"
	RuleSize   Rule = "size"
)

// Validation messages.
const (
	MessageFormat = "Only PDF files are supported"
	MessageName   = "File name must start with at least 4 letters (for example ABCD_form.pdf)"
	MessageSize   = "File exceeds the 100 MB size limit"
)

// ValidationError reports the first rule a candidate failed.
type ValidationError struct {
	Rule    Rule
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks the candidate's name and size. Rules run in order and the
// first failure is returned.
func Validate(candidate Candidate) error {
	name := candidate.Name
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return &ValidationError{Rule: RuleFormat, Message: MessageFormat}
	}
	if !hasLetterPrefix(name) {
		return &ValidationError{Rule: RuleName, Message: MessageName}
	}
	if candidate.Size > MaxFileSize {
		return &ValidationError{Rule: RuleSize, Message: MessageSize}
	}
	return nil
}

// hasLetterPrefix reports whether the part of name before the first '.' is
// at least four characters long and starts with four letters.
func hasLetterPrefix(name string) bool {
	stem, _, _ := strings.Cut(name, ".")
	if utf8.RuneCountInString(stem) < namePrefixLen {
		return false
	}
	count := 0
	for _, r := range stem {
		if count == namePrefixLen {
			break
		}
		if !unicode.IsLetter(r) {
			return false
		}
		count++
	}
	return true
}
