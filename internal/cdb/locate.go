package cdb

import (
	"os"
	"os/exec"

	"github.com/ctagard/cdb-mcp/internal/errors"
)

// defaultCDBPaths lists the well-known install locations of cdb.exe, checked
// in order before falling back to a PATH lookup. Covers the Windows 10/11 SDK
// Debugging Tools (all architectures), the Windows 8.1 SDK, WinDbg from the
// Microsoft Store, and the standalone Debugging Tools packages.
var defaultCDBPaths = []string{
	`C:\Program Files (x86)\Windows Kits\10\Debuggers\x64\cdb.exe`,
	`C:\Program Files (x86)\Windows Kits\10\Debuggers\x86\cdb.exe`,
	`C:\Program Files (x86)\Windows Kits\10\Debuggers\arm64\cdb.exe`,
	`C:\Program Files (x86)\Windows Kits\8.1\Debuggers\x64\cdb.exe`,
	`C:\Program Files (x86)\Windows Kits\8.1\Debuggers\x86\cdb.exe`,
	`C:\Program Files\WindowsApps\Microsoft.WinDbg_1.2306.14001.0_x64__8wekyb3d8bbwe\cdb.exe`,
	`C:\Program Files\Debugging Tools for Windows (x64)\cdb.exe`,
	`C:\Program Files (x86)\Debugging Tools for Windows (x86)\cdb.exe`,
}

// FindExecutable locates the cdb executable. A non-empty customPath must point
// at an existing file; it is never silently substituted with a discovered one,
// so a misconfigured path fails loudly instead of running a different debugger.
func FindExecutable(customPath string) (string, error) {
	if customPath != "" {
		if isFile(customPath) {
			return customPath, nil
		}
		return "", errors.CDBNotFound(customPath)
	}

	for _, path := range defaultCDBPaths {
		if isFile(path) {
			return path, nil
		}
	}

	if path, err := exec.LookPath("cdb.exe"); err == nil {
		return path, nil
	}

	return "", errors.CDBNotFound("")
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
