package installer

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractZip unpacks zipPath into destPath. Hosting snapshots wrap
// everything in one top-level directory (owner-repo-sha); it is stripped.
func extractZip(zipPath, destPath string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	topDir := commonTopDir(r.File)

	for _, f := range r.File {
		name := f.Name
		if topDir != "" {
			name = strings.TrimPrefix(name, topDir+"/")
		}
		if name == "" || name == topDir {
			continue
		}

		target := filepath.Join(destPath, filepath.FromSlash(name))
		if !strings.HasPrefix(target, filepath.Clean(destPath)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in archive: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := writeEntry(f, target); err != nil {
			return err
		}
	}

	return nil
}

// commonTopDir returns the single directory every entry lives under, or ""
func commonTopDir(files []*zip.File) string {
	top := ""
	for _, f := range files {
		parts := strings.SplitN(f.Name, "/", 2)
		if len(parts) < 2 {
			return ""
		}
		if top == "" {
			top = parts[0]
		} else if parts[0] != top {
			return ""
		}
	}
	return top
}

func writeEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
