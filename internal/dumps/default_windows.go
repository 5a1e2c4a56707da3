//go:build windows

package dumps

import (
	"golang.org/x/sys/windows/registry"
)

// registryDumpKeys are the HKLM keys whose DumpFolder value points at the
// machine's configured crash dump directory: WER per-process dumps first,
// then the legacy AeDebug configuration.
var registryDumpKeys = []string{
	`SOFTWARE\Microsoft\Windows\Windows Error Reporting\LocalDumps`,
	`SOFTWARE\Microsoft\Windows NT\CurrentVersion\AeDebug`,
}

// fallbackDumpDirs are checked when the registry has no usable DumpFolder.
var fallbackDumpDirs = []string{
	`C:\Windows\Minidump`,
	`C:\ProgramData\Microsoft\Windows\WER\ReportQueue`,
	`C:\Users\Public\Documents\Dumps`,
}

// DefaultDirectory returns the machine's crash dump directory: the registry
// configuration if one exists and points at a real directory, otherwise the
// first well-known dump location present on disk.
func DefaultDirectory() (string, bool) {
	for _, keyPath := range registryDumpKeys {
		key, err := registry.OpenKey(registry.LOCAL_MACHINE, keyPath, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		folder, _, err := key.GetStringValue("DumpFolder")
		key.Close()
		if err != nil || folder == "" {
			continue
		}
		// DumpFolder is commonly REG_EXPAND_SZ (e.g. %LOCALAPPDATA%\CrashDumps).
		if expanded, err := registry.ExpandString(folder); err == nil {
			folder = expanded
		}
		if isDir(folder) {
			return folder, true
		}
	}

	for _, dir := range fallbackDumpDirs {
		if isDir(dir) {
			return dir, true
		}
	}

	return "", false
}
