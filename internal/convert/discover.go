package convert

import (
	"os"
	"os/exec"
)

var commonPaths = []string{
	`C:\Program Files\LibreOffice\program\soffice.exe`,
	`C:\Program Files (x86)\LibreOffice\program\soffice.exe`,
	"/usr/bin/libreoffice",
	"/usr/local/bin/libreoffice",
	"/usr/bin/soffice",
	"/opt/libreoffice/program/soffice",
	"/Applications/LibreOffice.app/Contents/MacOS/soffice",
}

var lookPath = exec.LookPath

// Discover finds a LibreOffice executable on PATH or in common install
// locations. It returns an empty string when none is found.
func Discover() string {
	for _, name := range []string{"libreoffice", "soffice"} {
		if p, err := lookPath(name); err == nil {
			return p
		}
	}
	for _, p := range commonPaths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
