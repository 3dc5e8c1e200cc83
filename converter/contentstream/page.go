package contentstream

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PageStreams returns the indirect references of a page's content streams in
// document order. A page without contents returns an empty slice.
func PageStreams(ctx *model.Context, pageDict types.Dict) ([]types.IndirectRef, error) {
	obj, found := pageDict.Find("Contents")
	if !found {
		return nil, nil
	}

	switch contents := obj.(type) {
	case types.IndirectRef:
		resolved, err := ctx.Dereference(contents)
		if err != nil {
			return nil, err
		}
		// A single ref may point at the array form.
		if arr, ok := resolved.(types.Array); ok {
			return refsFromArray(arr), nil
		}
		return []types.IndirectRef{contents}, nil
	case types.Array:
		return refsFromArray(contents), nil
	}
	return nil, nil
}

func refsFromArray(arr types.Array) []types.IndirectRef {
	var refs []types.IndirectRef
	for _, item := range arr {
		if ref, ok := item.(types.IndirectRef); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// PageContent concatenates the decoded content streams of a page and returns
// the stream references alongside, for writing back via WritePageContent.
func PageContent(ctx *model.Context, pageDict types.Dict) ([]byte, []types.IndirectRef, error) {
	refs, err := PageStreams(ctx, pageDict)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	for _, ref := range refs {
		sd, err := streamDict(ctx, ref)
		if err != nil {
			return nil, nil, err
		}
		if sd == nil {
			continue
		}
		if err := sd.Decode(); err != nil {
			return nil, nil, fmt.Errorf("failed to decode content stream: %w", err)
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(sd.Content)
	}
	return buf.Bytes(), refs, nil
}

// WritePageContent stores data as the page's sole content, writing it into
// the first stream and emptying the rest so the operation sequence stays
// intact across the original stream boundaries.
func WritePageContent(ctx *model.Context, refs []types.IndirectRef, data []byte) error {
	if len(refs) == 0 {
		return fmt.Errorf("page has no content streams")
	}

	if err := replaceStreamContent(ctx, refs[0], data); err != nil {
		return err
	}
	for _, ref := range refs[1:] {
		if err := replaceStreamContent(ctx, ref, []byte{}); err != nil {
			return err
		}
	}
	return nil
}

func replaceStreamContent(ctx *model.Context, ref types.IndirectRef, data []byte) error {
	sd, err := streamDict(ctx, ref)
	if err != nil {
		return err
	}
	if sd == nil {
		return fmt.Errorf("object %s is not a content stream", ref)
	}
	if err := sd.Decode(); err != nil {
		return fmt.Errorf("failed to decode content stream: %w", err)
	}

	sd.Content = data
	if err := sd.Encode(); err != nil {
		return fmt.Errorf("failed to encode content stream: %w", err)
	}
	sd.Dict["Length"] = types.Integer(len(sd.Raw))

	entry, found := ctx.FindTableEntryForIndRef(&ref)
	if !found {
		return fmt.Errorf("no xref entry for %s", ref)
	}
	entry.Object = *sd
	return nil
}

func streamDict(ctx *model.Context, ref types.IndirectRef) (*types.StreamDict, error) {
	obj, err := ctx.Dereference(ref)
	if err != nil {
		return nil, err
	}
	sd, ok := obj.(types.StreamDict)
	if !ok {
		return nil, nil
	}
	return &sd, nil
}
