// Package analysis classifies pages to pick the cheapest conversion method
// that will still look right: vector rewriting for text pages, rasterization
// for image-heavy or very complex pages, a hybrid fallback for the rest.
package analysis

import (
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"pdfdusk/converter/contentstream"
	"pdfdusk/converter/logging"
)

// Method selects how a page gets converted.
type Method string

const (
	// MethodVector rewrites color operators in the content stream.
	MethodVector Method = "vector"
	// MethodImage rasterizes the page and inverts pixels.
	MethodImage Method = "image"
	// MethodHybrid tries vector first and falls back to image.
	MethodHybrid Method = "hybrid"
)

// ColorSample is one color operand set found in a content stream.
type ColorSample struct {
	Space  string
	Values []float64
}

// PageAnalysis describes a page's content makeup and the recommended
// conversion method.
type PageAnalysis struct {
	HasText           bool
	HasImages         bool
	HasVectorGraphics bool
	ColorsFound       []ColorSample
	ComplexityScore   int
	Method            Method
}

// Analyzer inspects pages. The complexity limit is the score above which a
// page is sent down the raster path.
type Analyzer struct {
	complexityLimit int
}

// NewAnalyzer creates an Analyzer with the given complexity limit.
func NewAnalyzer(complexityLimit int) *Analyzer {
	return &Analyzer{complexityLimit: complexityLimit}
}

// AnalyzePage inspects one page of an open document. Failures degrade to the
// image method, which makes no structural assumptions about the page.
func (a *Analyzer) AnalyzePage(ctx *model.Context, pageNr int) PageAnalysis {
	pageDict, _, inhPAttrs, err := ctx.PageDict(pageNr, false)
	if err != nil {
		logging.Logger.Warn("page analysis failed", "page", pageNr, "error", err)
		return PageAnalysis{Method: MethodImage}
	}

	hasImages := a.hasXObjects(ctx, pageDict, inhPAttrs)

	content, _, err := contentstream.PageContent(ctx, pageDict)
	if err != nil {
		logging.Logger.Warn("content stream analysis failed", "page", pageNr, "error", err)
		return PageAnalysis{HasImages: hasImages, Method: MethodImage}
	}

	return a.AnalyzeContent(content, hasImages)
}

// AnalyzeContent classifies a decoded content stream. hasImages carries the
// resource dictionary's verdict, which the stream itself cannot provide.
func (a *Analyzer) AnalyzeContent(content []byte, hasImages bool) PageAnalysis {
	analysis := PageAnalysis{HasImages: hasImages}

	ops, err := contentstream.Parse(content)
	if err != nil {
		logging.Logger.Warn("content stream analysis failed", "error", err)
		analysis.Method = MethodImage
		return analysis
	}

	var text strings.Builder
	for _, op := range ops {
		switch op.Operator {
		case "rg", "RG":
			if sample, ok := colorSample("RGB", op.Operands, 3); ok {
				analysis.ColorsFound = append(analysis.ColorsFound, sample)
			}
		case "k", "K":
			if sample, ok := colorSample("CMYK", op.Operands, 4); ok {
				analysis.ColorsFound = append(analysis.ColorsFound, sample)
			}
		case "g", "G":
			if sample, ok := colorSample("Gray", op.Operands, 1); ok {
				analysis.ColorsFound = append(analysis.ColorsFound, sample)
			}
		case "l", "m", "c", "v", "y", "h", "re":
			analysis.HasVectorGraphics = true
		case "Tj", "'", "\"":
			for _, operand := range op.Operands {
				if contentstream.IsString(operand) {
					text.WriteString(contentstream.DecodeString(operand))
				}
			}
		case "TJ":
			for _, operand := range op.Operands {
				for _, str := range contentstream.StringsInArray(operand) {
					text.WriteString(contentstream.DecodeString(str))
				}
			}
		}
	}

	analysis.HasText = strings.TrimSpace(text.String()) != ""
	analysis.ComplexityScore = len(analysis.ColorsFound)
	if analysis.HasVectorGraphics {
		analysis.ComplexityScore += 10
	}
	analysis.Method = a.recommendMethod(analysis)
	return analysis
}

// recommendMethod picks the conversion method, in priority order.
func (a *Analyzer) recommendMethod(analysis PageAnalysis) Method {
	if analysis.ComplexityScore > a.complexityLimit || analysis.HasImages {
		return MethodImage
	}
	if analysis.HasText && !analysis.HasImages {
		return MethodVector
	}
	return MethodHybrid
}

// hasXObjects reports whether the page's resource dictionary carries any
// XObject entries, embedded images and forms included.
func (a *Analyzer) hasXObjects(ctx *model.Context, pageDict types.Dict, inhPAttrs *model.InheritedPageAttrs) bool {
	var resources types.Dict
	if obj, found := pageDict.Find("Resources"); found {
		resources = resolveDict(ctx, obj)
	}
	if resources == nil && inhPAttrs != nil {
		resources = inhPAttrs.Resources
	}
	if resources == nil {
		return false
	}
	if obj, found := resources.Find("XObject"); found {
		return len(resolveDict(ctx, obj)) > 0
	}
	return false
}

func resolveDict(ctx *model.Context, obj types.Object) types.Dict {
	resolved, err := ctx.Dereference(obj)
	if err != nil {
		return nil
	}
	if d, ok := resolved.(types.Dict); ok {
		return d
	}
	return nil
}

func colorSample(space string, operands []string, arity int) (ColorSample, bool) {
	if len(operands) < arity {
		return ColorSample{}, false
	}
	values := make([]float64, arity)
	for i := 0; i < arity; i++ {
		v, err := contentstream.ParseNumber(operands[i])
		if err != nil {
			return ColorSample{}, false
		}
		values[i] = v
	}
	return ColorSample{Space: space, Values: values}, true
}
