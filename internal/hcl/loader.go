package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/prefabgo/internal/ctxlog"
	"github.com/vk/prefabgo/internal/model"
)

// Extension is the file suffix prefab documents are stored under.
const Extension = ".prefab.hcl"

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "prefab", LabelNames: []string{"variant"}},
	},
}

// Loader parses prefab documents from disk or memory into the model form.
// A Loader is stateless and safe for concurrent use.
type Loader struct{}

// NewLoader returns a prefab document loader.
func NewLoader() *Loader {
	return &Loader{}
}

// EvalContext returns the evaluation context documents loaded by this
// loader are evaluated in.
func (l *Loader) EvalContext() *hcl.EvalContext {
	return BaseEvalContext()
}

// Load parses and translates the prefab document at path. The document is
// structurally validated before it is returned.
func (l *Loader) Load(ctx context.Context, path string) (*model.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading prefab document.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse prefab file %s: %w", path, diags)
	}
	return l.translateFile(ctx, file, path)
}

// Parse translates an in-memory prefab document, for tests and tooling.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*model.Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse prefab source %s: %w", filename, diags)
	}
	return l.translateFile(ctx, file, filename)
}

func (l *Loader) translateFile(ctx context.Context, file *hcl.File, path string) (*model.Document, error) {
	logger := ctxlog.FromContext(ctx)

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode prefab file %s: %w", path, diags)
	}

	var prefabBlock *hcl.Block
	for _, block := range content.Blocks {
		if prefabBlock != nil {
			return nil, fmt.Errorf("%s: a prefab file holds exactly one prefab block, second found at %s", path, block.DefRange)
		}
		prefabBlock = block
	}
	if prefabBlock == nil {
		return nil, fmt.Errorf("%s: no prefab block found", path)
	}

	doc, err := translateDocument(prefabBlock, path, l.EvalContext())
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug("Prefab document loaded.",
		"path", path,
		"variant", doc.Variant,
		"entities", len(doc.Entities),
		"instances", len(doc.Instances),
	)
	return doc, nil
}
