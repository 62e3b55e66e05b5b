// Package appfs exposes the app's embedded assets: SQL migrations and email templates.
package appfs

import "embed"

// go:embed skips _-prefixed files so the shared partials must be named explicitly.
//
//go:embed migrations templates templates/email/_base.txt templates/email/_base.gohtml
var FS embed.FS
