package manifest

import (
	"fmt"
	"io"

	"github.com/jgivc/vsxsync/internal/common"
	"github.com/jgivc/vsxsync/internal/entity"
	"github.com/spf13/afero"
	yaml "gopkg.in/yaml.v2"
)

const listKey = "enabled"

type document struct {
	Enabled []entity.ExtensionRef `yaml:"enabled"`
}

// Parser reads a declared extension list from a YAML manifest of the
// form:
//
//	enabled:
//	  - id: publisher.name
//	    uuid: 1a2b...
//
// Entries without an id are skipped. A manifest without an "enabled"
// list fails with common.ErrMalformedManifest.
type Parser struct {
	fs afero.Fs
}

func NewParser() *Parser {
	return NewParserWithFS(afero.NewOsFs())
}

func NewParserWithFS(fs afero.Fs) *Parser {
	return &Parser{fs: fs}
}

func (p *Parser) ParseFile(path string) ([]entity.ExtensionRef, error) {
	f, err := p.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open manifest %s: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

func (p *Parser) Parse(r io.Reader) ([]entity.ExtensionRef, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedManifest, err)
	}

	v, exists := raw[listKey]
	if !exists {
		return nil, fmt.Errorf("%w: missing %q list", common.ErrMalformedManifest, listKey)
	}

	if _, ok := v.([]interface{}); !ok {
		return nil, fmt.Errorf("%w: %q is not a list", common.ErrMalformedManifest, listKey)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedManifest, err)
	}

	refs := make([]entity.ExtensionRef, 0, len(doc.Enabled))
	for _, ref := range doc.Enabled {
		if ref.ID == "" {
			continue
		}

		refs = append(refs, ref)
	}

	return refs, nil
}
