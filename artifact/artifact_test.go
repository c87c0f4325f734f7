package artifact

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-pipeline/segment"
	"whiteboard-pipeline/types"
)

const diagram = "M 100 100 L 600 100 L 600 400 L 100 400 Z " +
	"M 200 200 L 240 200 L 240 240 L 200 240 Z " +
	"M 700 500 C 750 450 800 550 850 500 " +
	"m 20 20 l 30 0 l 0 30 z " +
	"M 12.75 900.5 Q 400 700 900 1000"

func TestRoundTrip(t *testing.T) {
	canvas := segment.Canvas{Width: 1920, Height: 1080}
	seg := segment.New(canvas, segment.DefaultRules())
	paths := segment.Order(seg.Segment(diagram), segment.OrderArea, 10)
	require.Len(t, paths, 5)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, canvas, paths))

	gotCanvas, got, err := Read(&buf, segment.DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, canvas, gotCanvas)
	if diff := cmp.Diff(paths, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteGroupsByClassification(t *testing.T) {
	paths := []types.VectorPath{
		{ID: 3, Commands: "M 0 0 L 10 10", Classification: types.Stroke},
		{ID: 7, Commands: "M 1 1 L 2 1 L 2 2 Z", Classification: types.GlyphFill},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, segment.Canvas{Width: 640, Height: 360}, paths))
	out := buf.String()

	assert.Contains(t, out, `viewBox="0 0 640 360"`)
	assert.Contains(t, out, `data-classification="stroke"`)
	assert.Contains(t, out, `data-classification="glyphFill"`)
	assert.Contains(t, out, `<path id="p7" data-order="1" d="M 1 1 L 2 1 L 2 2 Z">`)
}

func TestReadErrors(t *testing.T) {
	_, _, err := Read(strings.NewReader("<nope"), segment.DefaultRules())
	assert.Error(t, err)

	bad := `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10">` +
		`<g data-classification="sparkle"><path id="p0" data-order="0" d="M 0 0 L 1 1"></path></g></svg>`
	_, _, err = Read(strings.NewReader(bad), segment.DefaultRules())
	assert.ErrorContains(t, err, "sparkle")

	empty := `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10">` +
		`<g data-classification="stroke"><path id="p0" data-order="0" d="M 5 5"></path></g></svg>`
	_, _, err = Read(strings.NewReader(empty), segment.DefaultRules())
	assert.Error(t, err)
}
