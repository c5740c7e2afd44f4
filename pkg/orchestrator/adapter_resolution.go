package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-schemaform/pkg/openapi"
	"github.com/goliatone/go-schemaform/pkg/schema"
)

var errNoInput = errors.New("orchestrator: source or document is required")

// loadDocument prefers a caller-supplied document over loading Source.
func (o *Orchestrator) loadDocument(ctx context.Context, req Request) (schema.Document, error) {
	switch {
	case req.Document != nil:
		return *req.Document, nil
	case req.Source == nil:
		return schema.Document{}, errNoInput
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return schema.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
	}
	return doc, nil
}

// resolveAdapter picks the adapter for doc: the request format when named,
// otherwise whichever adapter claims the document, otherwise the default
// format. OpenAPI requests carrying an operation selector get a fresh
// adapter bound to it.
func (o *Orchestrator) resolveAdapter(req Request, doc schema.Document) (FormatAdapter, error) {
	if o.adapters == nil {
		return nil, errors.New("orchestrator: adapter registry is nil")
	}

	var (
		adapter FormatAdapter
		err     error
	)
	if format := strings.TrimSpace(req.Format); format != "" {
		adapter, err = o.adapters.Get(format)
	} else {
		adapter, err = o.adapters.Detect(doc.Source(), doc.Raw(), o.defaultFormat)
	}
	if err != nil {
		return nil, err
	}

	if req.Selector == (openapi.Selector{}) || adapter.Name() != openapi.DefaultAdapterName {
		return adapter, nil
	}
	return openapi.NewAdapter(o.loader, openapi.WithSelector(req.Selector)), nil
}
