// Package assets bundles backups that can be imported by name.
package assets

import "embed"

// DemoBackup is the name of the bundled sample backup.
const DemoBackup = "demo_backup.json"

//go:embed *.json
var FS embed.FS
