package packaging

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Archive compresses the output directory tree into a single zip file
// at archivePath. Entry names are relative to outputDir with forward
// slashes, so the archive unpacks into one directory per grouping key
// plus the top-level metadata files.
func Archive(outputDir, archivePath string) error {
	file, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer file.Close()

	writer := zip.NewWriter(file)

	walkErr := filepath.WalkDir(outputDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(outputDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(relative)

		info, err := entry.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = name
		header.Method = zip.Deflate

		dest, err := writer.CreateHeader(header)
		if err != nil {
			return err
		}
		source, err := os.Open(path)
		if err != nil {
			return err
		}
		defer source.Close()

		_, err = io.Copy(dest, source)
		return err
	})
	if walkErr != nil {
		_ = writer.Close()
		return fmt.Errorf("archive %s: %w", filepath.Base(archivePath), walkErr)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return file.Close()
}

// ArchiveName derives the archive filename from a dataset identifier.
func ArchiveName(datasetID string) string {
	return strings.TrimSpace(datasetID) + ".zip"
}
