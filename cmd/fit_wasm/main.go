//go:build js && wasm

package main

import (
	"fmt"
	"syscall/js"

	"github.com/lucasjlepore/fit-tracker/pipeline"
)

func main() {
	js.Global().Set("summarizeTrack", js.FuncOf(summarizeTrack))
	select {}
}

// summarizeTrack(fileBytes: Uint8Array, options?: object) returns
// {ok, zip, files, warnings, run_id, sessions} or {ok: false, error}.
func summarizeTrack(_ js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].IsUndefined() || args[0].IsNull() {
		return failure("expected arguments: fileBytes(Uint8Array), options(object)")
	}
	data := make([]byte, args[0].Get("length").Int())
	if len(data) == 0 || js.CopyBytesToGo(data, args[0]) != len(data) {
		return failure("track file bytes are required")
	}

	opts := jsOptions{js.Undefined()}
	if len(args) > 1 {
		opts = jsOptions{args[1]}
	}
	result, err := pipeline.RunBytes(pipeline.BytesOptions{
		SourceFileName: opts.str("source_file_name", "input.csv"),
		Data:           data,
		WeightKG:       opts.num("weight_kg", 75),
		HorizonSec:     opts.num("horizon_sec", 30),
		Format:         opts.str("format", "csv"),
	})
	if err != nil {
		return failure(err.Error())
	}

	archive, names, err := result.Archive()
	if err != nil {
		return failure(fmt.Sprintf("create zip: %v", err))
	}
	payload := js.Global().Get("Uint8Array").New(len(archive))
	js.CopyBytesToJS(payload, archive)

	files := make([]any, len(names))
	for i, n := range names {
		files[i] = n
	}
	warnings := make([]any, len(result.Warnings))
	for i, w := range result.Warnings {
		warnings[i] = w
	}
	return map[string]any{
		"ok":       true,
		"zip":      payload,
		"files":    files,
		"warnings": warnings,
		"run_id":   result.RunID,
		"sessions": len(result.Summary.Sessions),
	}
}

func failure(msg string) map[string]any {
	return map[string]any{"ok": false, "error": msg}
}

type jsOptions struct{ v js.Value }

func (o jsOptions) field(key string) (js.Value, bool) {
	if o.v.IsUndefined() || o.v.IsNull() {
		return js.Undefined(), false
	}
	f := o.v.Get(key)
	return f, !f.IsUndefined() && !f.IsNull()
}

func (o jsOptions) str(key, fallback string) string {
	f, ok := o.field(key)
	if !ok || f.Type() != js.TypeString || f.String() == "" {
		return fallback
	}
	return f.String()
}

func (o jsOptions) num(key string, fallback float64) float64 {
	f, ok := o.field(key)
	if !ok || f.Type() != js.TypeNumber {
		return fallback
	}
	return f.Float()
}
