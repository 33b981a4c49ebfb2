package admin

import (
	"github.com/nexxt/connect/internal/api/deps"
	"github.com/nexxt/connect/internal/similarity"
)

var refresher *similarity.Refresher

// Init binds the module to the shared similarity refresher
func Init(d *deps.Deps) {
	refresher = d.Refresher
}
