// Package artifact persists a traced path set as an SVG document so a
// diagram does not have to be traced again.
//
// Paths are grouped by classification and carry their position in the draw
// order, so a document read back yields the same ordered list. Only the path
// commands and classifications are stored; lengths, bounding boxes and start
// points are recomputed from them on read.
package artifact

import (
	"cmp"
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"whiteboard-pipeline/segment"
	"whiteboard-pipeline/types"
)

type document struct {
	XMLName xml.Name `xml:"http://www.w3.org/2000/svg svg"`
	Width   float64  `xml:"width,attr"`
	Height  float64  `xml:"height,attr"`
	ViewBox string   `xml:"viewBox,attr"`
	Groups  []group  `xml:"g"`
}

type group struct {
	Classification string    `xml:"data-classification,attr"`
	Fill           string    `xml:"fill,attr,omitempty"`
	Stroke         string    `xml:"stroke,attr,omitempty"`
	Paths          []element `xml:"path"`
}

type element struct {
	ID    string `xml:"id,attr"`
	Order int    `xml:"data-order,attr"`
	D     string `xml:"d,attr"`
}

// Write encodes paths, in their current order, for a canvas of the given
// size.
func Write(w io.Writer, canvas segment.Canvas, paths []types.VectorPath) error {
	doc := document{
		Width:   canvas.Width,
		Height:  canvas.Height,
		ViewBox: fmt.Sprintf("0 0 %s %s", formatFloat(canvas.Width), formatFloat(canvas.Height)),
		Groups: []group{
			{Classification: string(types.Stroke), Fill: "none", Stroke: "#000000"},
			{Classification: string(types.GlyphFill), Fill: "#000000", Stroke: "none"},
		},
	}
	for order, p := range paths {
		el := element{ID: "p" + strconv.Itoa(p.ID), Order: order, D: p.Commands}
		switch p.Classification {
		case types.GlyphFill:
			doc.Groups[1].Paths = append(doc.Groups[1].Paths, el)
		default:
			doc.Groups[0].Paths = append(doc.Groups[0].Paths, el)
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Read decodes a document written by Write. Derived fields are recomputed
// with a Segmenter using rules, so they match a fresh segmentation of the
// same commands on the same canvas.
func Read(r io.Reader, rules segment.Rules) (segment.Canvas, []types.VectorPath, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return segment.Canvas{}, nil, fmt.Errorf("decode artifact: %w", err)
	}
	canvas := segment.Canvas{Width: doc.Width, Height: doc.Height}
	seg := segment.New(canvas, rules)

	type ordered struct {
		order int
		path  types.VectorPath
	}
	var all []ordered
	for _, g := range doc.Groups {
		class, err := types.ParseClassification(g.Classification)
		if err != nil {
			return canvas, nil, err
		}
		for _, el := range g.Paths {
			id, err := strconv.Atoi(strings.TrimPrefix(el.ID, "p"))
			if err != nil {
				return canvas, nil, fmt.Errorf("path id %q: %w", el.ID, err)
			}
			p, ok := seg.Describe(el.D)
			if !ok {
				return canvas, nil, fmt.Errorf("path %q has nothing to draw", el.ID)
			}
			p.ID = id
			p.Commands = el.D
			p.Classification = class
			all = append(all, ordered{order: el.Order, path: p})
		}
	}

	slices.SortStableFunc(all, func(a, b ordered) int { return cmp.Compare(a.order, b.order) })
	paths := make([]types.VectorPath, len(all))
	for i, o := range all {
		paths[i] = o.path
	}
	return canvas, paths, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
