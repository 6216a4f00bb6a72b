// Package migrations embeds the goose migrations applied to every tenant
// data store when its connection is first constructed.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
