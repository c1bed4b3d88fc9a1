package security

import (
	"os"
	"path/filepath"
	"testing"
)

// exportTree builds safe/ and outside/ under a temp dir, with
// safe/escape linking to outside/ and alias linking to safe/.
func exportTree(t *testing.T) (root, safeDir, escape, alias string) {
	t.Helper()
	root = t.TempDir()
	safeDir = filepath.Join(root, "safe")
	outside := filepath.Join(root, "outside")
	for _, d := range []string{safeDir, outside} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	if err := os.WriteFile(filepath.Join(outside, "plan.json"), []byte("{}"), 0644); err != nil {
		t.Fatalf("write outside plan: %v", err)
	}
	escape = filepath.Join(safeDir, "escape")
	if err := os.Symlink(outside, escape); err != nil {
		t.Fatalf("symlink escape: %v", err)
	}
	alias = filepath.Join(root, "alias")
	if err := os.Symlink(safeDir, alias); err != nil {
		t.Fatalf("symlink alias: %v", err)
	}
	return root, safeDir, escape, alias
}

func TestValidatePathWithinDirectory(t *testing.T) {
	root, safeDir, escape, alias := exportTree(t)

	tests := []struct {
		name      string
		filePath  string
		safeDir   string
		wantError bool
	}{
		{name: "plan file in directory", filePath: filepath.Join(root, "plan.json"), safeDir: root},
		{name: "nested directory not created yet", filePath: filepath.Join(root, "runs", "2026", "plan.png"), safeDir: root},
		{name: "dot-dot leaves directory", filePath: filepath.Join(root, "..", "plan.json"), safeDir: root, wantError: true},
		{name: "relative traversal", filePath: "../../../etc/passwd", safeDir: root, wantError: true},
		{name: "absolute path elsewhere", filePath: "/etc/passwd", safeDir: root, wantError: true},
		{name: "existing file behind symlink", filePath: filepath.Join(escape, "plan.json"), safeDir: safeDir, wantError: true},
		{name: "symlink itself", filePath: escape, safeDir: safeDir, wantError: true},
		{name: "new file behind symlinked parent", filePath: filepath.Join(escape, "plan.html"), safeDir: safeDir, wantError: true},
		{name: "new nested dirs behind symlinked parent", filePath: filepath.Join(escape, "runs", "new", "plan.json"), safeDir: safeDir, wantError: true},
		{name: "new file through alias of directory", filePath: filepath.Join(alias, "runs", "plan.json"), safeDir: safeDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, tt.safeDir)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantError %v", tt.filePath, err, tt.wantError)
			}
		})
	}
}

func TestCanonicalise(t *testing.T) {
	root, safeDir, escape, alias := exportTree(t)
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatalf("resolve root: %v", err)
	}
	realSafe := filepath.Join(realRoot, "safe")
	realOutside := filepath.Join(realRoot, "outside")

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "existing file behind symlink", path: filepath.Join(escape, "plan.json"), want: filepath.Join(realOutside, "plan.json")},
		{name: "missing file resolves parent", path: filepath.Join(escape, "plan.png"), want: filepath.Join(realOutside, "plan.png")},
		{name: "missing subtree resolves deepest parent", path: filepath.Join(alias, "a", "b", "plan.json"), want: filepath.Join(realSafe, "a", "b", "plan.json")},
		{name: "missing path under real directory", path: filepath.Join(safeDir, "new", "plan.json"), want: filepath.Join(realSafe, "new", "plan.json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canonicalise(tt.path); got != tt.want {
				t.Errorf("canonicalise(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestValidateExportPath(t *testing.T) {
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	tmpDir := t.TempDir()

	tests := []struct {
		name      string
		filePath  string
		workDir   string
		wantError bool
	}{
		{name: "temp dir", filePath: filepath.Join(os.TempDir(), "plan.json"), workDir: originalWd},
		{name: "relative to working dir", filePath: "plan.json", workDir: tmpDir},
		{name: "missing subdir of working dir", filePath: filepath.Join("exports", "plan.png"), workDir: tmpDir},
		{name: "system file", filePath: "/etc/passwd", workDir: originalWd, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.workDir != originalWd {
				if err := os.Chdir(tt.workDir); err != nil {
					t.Fatalf("chdir: %v", err)
				}
				t.Cleanup(func() {
					if err := os.Chdir(originalWd); err != nil {
						t.Errorf("restore working dir: %v", err)
					}
				})
			}

			err := ValidateExportPath(tt.filePath)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateExportPath(%q) error = %v, wantError %v", tt.filePath, err, tt.wantError)
			}
		})
	}
}
