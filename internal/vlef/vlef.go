// Package vlef reads and writes the VoiceLearn evaluation format, a
// schema-validated JSON document bundling models, suites, runs, and ratings
// for sharing between installations. Files ending in .gz are gzip-compressed.
package vlef

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/voicelearn/vleval/internal/models"
)

// FormatVersion identifies the document format written by this package.
// Readers accept any 1.x document.
const FormatVersion = "1.0"

//go:embed vlef.schema.json
var vlefSchemaJSON string

var vlefSchema *jsonschema.Schema

func init() {
	var schemaDoc any
	if err := json.Unmarshal([]byte(vlefSchemaJSON), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded vlef.schema.json: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("vlef.schema.json", schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add vlef schema resource: %v", err))
	}
	sch, err := compiler.Compile("vlef.schema.json")
	if err != nil {
		panic(fmt.Sprintf("failed to compile vlef schema: %v", err))
	}
	vlefSchema = sch
}

// Document is a portable bundle of evaluation data.
type Document struct {
	FormatVersion string                    `json:"format_version"`
	ExportedAt    string                    `json:"exported_at"`
	Tool          string                    `json:"tool,omitempty"`
	Models        []models.ModelSpec        `json:"models"`
	Suites        []models.BenchmarkSuite   `json:"suites,omitempty"`
	Runs          []models.EvalRun          `json:"runs"`
	Ratings       []models.GradeLevelRating `json:"ratings,omitempty"`
}

// New creates an empty document stamped with the current time.
func New() *Document {
	return &Document{
		FormatVersion: FormatVersion,
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
		Tool:          "vleval",
		Models:        []models.ModelSpec{},
		Runs:          []models.EvalRun{},
	}
}

// Encode writes the document as indented JSON, gzip-compressed when
// compress is true.
func Encode(w io.Writer, doc *Document, compress bool) error {
	if compress {
		gz := gzip.NewWriter(w)
		if err := encodeJSON(gz, doc); err != nil {
			gz.Close()
			return err
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("closing gzip stream: %w", err)
		}
		return nil
	}
	return encodeJSON(w, doc)
}

func encodeJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return nil
}

// Decode reads a document, transparently handling gzip input, and validates
// it against the format schema before unmarshaling.
func Decode(r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer gz.Close()
		return decodeJSON(gz)
	}
	return decodeJSON(br)
}

func decodeJSON(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	if err := vlefSchema.Validate(instance); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return &doc, nil
}

// WriteFile writes the document to path, compressing when the path ends in
// .gz.
func WriteFile(path string, doc *Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := Encode(f, doc, strings.HasSuffix(path, ".gz")); err != nil {
		return err
	}
	return f.Close()
}

// ReadFile reads and validates a document from path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}
