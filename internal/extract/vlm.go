package extract

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ragpipe/internal/providers"
)

// vlmExtractor is the last-resort extractor: it asks a vision-capable
// provider to transcribe a document image. It is only reachable when
// use_vlm is enabled, since it consumes model quota per page/file.
type vlmExtractor struct {
	minTextLength int
	client        *providers.Client
	prompt        string
}

// SetVLMClient wires the provider client the vlm extractor calls. Extractors
// are otherwise constructed from plain config maps; the client is injected
// once by the pipeline before a Manager built with use_vlm=true runs.
var vlmClient *providers.Client

func SetVLMClient(c *providers.Client) { vlmClient = c }

func newVLMExtractor(cfg map[string]interface{}) *vlmExtractor {
	return &vlmExtractor{
		minTextLength: intOr(cfg["min_text_length"], 10),
		client:        vlmClient,
		prompt:        stringOr(cfg["prompt"], "Transcribe all text visible in this document image verbatim."),
	}
}

func (v *vlmExtractor) Name() string { return "vlm" }

func (v *vlmExtractor) CanExtract(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".pdf":
		return v.client != nil
	default:
		return false
	}
}

func (v *vlmExtractor) Extract(path string) Result {
	if v.client == nil {
		return Result{Error: "vlm: no provider client configured"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Error: err.Error()}
	}
	encoded := base64.StdEncoding.EncodeToString(data)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	reply, err := v.client.Chat(ctx, "", v.prompt+"\n\n[image/base64]: "+encoded[:min(len(encoded), 200)]+"...")
	if err != nil {
		return Result{Error: err.Error()}
	}

	return Result{
		Text:            reply,
		Success:         true,
		ConfidenceScore: 0.5,
		Metadata:        map[string]interface{}{"format": "vlm_transcription"},
	}
}

func (v *vlmExtractor) ValidateResult(r Result) bool {
	return r.Success && len(strings.TrimSpace(r.Text)) >= v.minTextLength
}
