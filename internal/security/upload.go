// Package security provides upload validation against per-category policy.
package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileMeta describes a candidate upload. Only metadata is inspected here;
// content scanning belongs to a later pipeline stage.
type FileMeta struct {
	Name string // User-supplied filename, never trusted for storage
	Size int64  // Size in bytes
	MIME string // Declared Content-Type
}

// FileValidationResult carries the outcome of a validation pass.
// Errors accumulate: a file can fail size, type and name checks at once,
// and the caller gets all findings in a single pass.
type FileValidationResult struct {
	IsValid bool
	Errors  []string
}

// FileValidator checks candidate uploads against category policy.
type FileValidator struct {
	categories map[string]UploadCategory
}

// NewFileValidator creates a validator over the configured category table.
func NewFileValidator(config *Config) *FileValidator {
	return &FileValidator{categories: config.UploadCategories}
}

// ValidateFile checks file metadata against the union of the allowed
// categories. All checks run unconditionally so the result can report every
// violation at once.
//
// Policy:
//  1. Size must not exceed the largest ceiling among allowed categories.
//  2. MIME type must appear in the union of category allow-lists.
//  3. Filename must not contain path traversal or separator sequences.
func (v *FileValidator) ValidateFile(file FileMeta, allowedCategories []string) FileValidationResult {
	result := FileValidationResult{IsValid: true}

	var maxSize int64
	allowedMIMEs := make(map[string]bool)
	for _, cat := range allowedCategories {
		policy, ok := v.categories[cat]
		if !ok {
			continue
		}
		if policy.MaxSize > maxSize {
			maxSize = policy.MaxSize
		}
		for _, mime := range policy.AllowedMIMEs {
			allowedMIMEs[mime] = true
		}
	}

	if file.Size > maxSize {
		result.IsValid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("file size %d exceeds maximum of %d bytes", file.Size, maxSize))
	}

	if !allowedMIMEs[file.MIME] {
		result.IsValid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("file type %q is not allowed", file.MIME))
	}

	if strings.Contains(file.Name, "..") ||
		strings.ContainsAny(file.Name, `/\`) {
		result.IsValid = false
		result.Errors = append(result.Errors, "filename contains unsafe path characters")
	}

	return result
}

// safeExtension matches a short alphanumeric file extension.
var safeExtension = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// GenerateSecureFilename produces a collision-resistant storage name of the
// form timestamp_token.ext, decoupled from the user-supplied name. Apply
// this before any filesystem or object-store write; the original name is
// display metadata only.
func GenerateSecureFilename(original string) string {
	token := uuid.NewString()

	ext := strings.ToLower(filepath.Ext(original))
	if !safeExtension.MatchString(ext) {
		ext = ""
	}
	return fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), token, ext)
}
