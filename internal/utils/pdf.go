package utils

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var pdfMagic = []byte("%PDF-")

// IsPDFFile checks both the filename extension and the file's magic bytes, so
// a renamed image cannot enter the extraction pipeline.
func IsPDFFile(filename string, data []byte) bool {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return false
	}
	return bytes.HasPrefix(data, pdfMagic)
}

// GenerateUniquePDFFilename builds a collision-free object name for an upload,
// scoped under the owning user.
func GenerateUniquePDFFilename(userID string) string {
	return fmt.Sprintf("reports/%s/%d_%s.pdf", userID, time.Now().Unix(), uuid.NewString()[:8])
}
