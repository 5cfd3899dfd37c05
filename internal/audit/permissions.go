package audit

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/garagon/tatu/internal/scanner"
	"github.com/garagon/tatu/internal/types"
)

// SensitiveFiles are checked for loose permissions, relative to the scan root.
var SensitiveFiles = []string{
	".env", ".env.local", ".env.production",
	"credentials.json", "service-account.json",
	"id_rsa", "id_ed25519",
}

// Permission finding IDs.
const (
	WorldWritableID = "world-writable-sensitive-file"
	WorldReadableID = "world-readable-sensitive-file"
)

// PermissionAuditor implements scanner.ProjectAnalyzer by inspecting the
// mode bits of SensitiveFiles. It reports nothing on platforms where
// PermissionsSupported is false.
type PermissionAuditor struct{}

func (PermissionAuditor) Name() string { return "permissions" }

func (PermissionAuditor) AnalyzeProject(ctx context.Context, root string, _ []*scanner.Target) ([]scanner.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return CheckPermissions(root), nil
}

// CheckPermissions stats each sensitive file under root. Missing files are
// skipped. A file open to everyone for writing yields a critical finding and
// one open for reading a high finding; a file with both bits gets both.
func CheckPermissions(root string) []types.Finding {
	if !PermissionsSupported() {
		return nil
	}
	var findings []types.Finding
	for _, name := range SensitiveFiles {
		info, err := os.Stat(filepath.Join(root, name))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		findings = append(findings, modeFindings(name, info.Mode().Perm())...)
	}
	return findings
}

func modeFindings(name string, perm fs.FileMode) []types.Finding {
	var findings []types.Finding
	if perm&0o002 != 0 {
		findings = append(findings, types.Finding{
			ID:          WorldWritableID,
			Name:        "World-writable sensitive file",
			Severity:    types.SeverityCritical,
			File:        name,
			Match:       fmt.Sprintf("mode %04o: any local user can modify %s", perm, name),
			Category:    types.CategoryConfig,
			Description: "Any local user can replace this file's contents. Restrict it with chmod 600.",
		})
	}
	if perm&0o004 != 0 {
		findings = append(findings, types.Finding{
			ID:          WorldReadableID,
			Name:        "World-readable sensitive file",
			Severity:    types.SeverityHigh,
			File:        name,
			Match:       fmt.Sprintf("mode %04o: any local user can read %s", perm, name),
			Category:    types.CategoryConfig,
			Description: "Any local user can read the credentials in this file. Restrict it with chmod 600.",
		})
	}
	return findings
}

// PermissionsStatus is the scan-level permission status reported alongside
// findings.
func PermissionsStatus() string {
	if PermissionsSupported() {
		return types.PermissionsChecked
	}
	return types.PermissionsNotApplicable
}
