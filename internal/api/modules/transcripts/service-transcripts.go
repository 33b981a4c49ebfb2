package transcripts

import (
	"github.com/nexxt/connect/internal/api/deps"
	"github.com/nexxt/connect/internal/transcript"
)

var transcriptService *transcript.Service

// Init binds the module to the shared transcript service
func Init(d *deps.Deps) {
	transcriptService = d.Transcripts
}
