package image

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".avif"}
}

// isImageFile checks if a file has a supported image extension.
func isImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(SupportedImageExtensions(), ext)
}

// ScanDirectoryForImages scans a directory and returns all valid image files
// in lexical order. It does not recurse into subdirectories, but follows symlinks.
func ScanDirectoryForImages(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var imageFiles []string
	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())

		// For symlinks, stat the target to determine if it's a file.
		info, err := os.Stat(fullPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			continue
		}
		if isImageFile(entry.Name()) {
			imageFiles = append(imageFiles, fullPath)
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no supported image files found in directory: %s", dirPath)
	}

	return imageFiles, nil
}

// ExpandSources replaces every local directory in sources with the images it
// contains. URLs and files are passed through unchanged.
func ExpandSources(sources []string) ([]string, error) {
	out := make([]string, 0, len(sources))
	for _, src := range sources {
		if SourceKindOf(src) != SourceFile {
			out = append(out, src)
			continue
		}
		info, err := os.Stat(src)
		if err != nil || !info.IsDir() {
			out = append(out, src)
			continue
		}
		files, err := ScanDirectoryForImages(src)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}
