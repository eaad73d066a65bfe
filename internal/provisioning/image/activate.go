package image

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// ActivateScriptName is the file the VM runs on first boot.
const ActivateScriptName = "activate"

const activateTemplate = `#!/bin/sh
set -e
mkdir /tmp/web-root/
dd if=/dev/urandom of=/tmp/web-root/%[1]s bs=1024 count=1024
cd /tmp/web-root
sha256sum %[1]s > /tmp/web-root/%[2]s
docker run \
  -it --rm -d \
  -p %[3]d:80 \
  --name web \
  -v /tmp/web-root/:/usr/share/nginx/html \
  %[4]s`

// ActivateScript returns the first-boot script of a VM. It writes 1 MiB of
// random data and its checksum manifest into a web root and serves it with
// the web image on port.
func ActivateScript(webImage string, port int, payloadPath, manifestPath string) string {
	return fmt.Sprintf(activateTemplate, path.Base(payloadPath), path.Base(manifestPath), port, webImage)
}

// WriteActivateScript writes the executable activate script into dir.
func WriteActivateScript(dir, script string) (string, error) {
	p := filepath.Join(dir, ActivateScriptName)
	if err := os.WriteFile(p, []byte(script), 0o755); err != nil { //nolint:gosec // must be executable inside the VM
		return "", fmt.Errorf("failed to write activate script: %w", err)
	}
	return p, nil
}
