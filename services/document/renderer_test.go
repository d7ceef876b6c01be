package document

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPermit(t *testing.T) {
	r, err := NewHTMLRenderer(time.UTC)
	require.NoError(t, err)

	out, err := r.Render(context.Background(), PermitData{
		Number:        "001/UGM/03/2025",
		FacilityName:  "Room A",
		RequesterName: "Dewi <script>",
		Purpose:       "Seminar",
		Participants:  40,
		Start:         time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		End:           time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "No. 001/UGM/03/2025")
	assert.Contains(t, html, "10 Mar 2025 09:00 UTC")
	assert.Contains(t, html, "Dewi &lt;script&gt;")
	assert.Contains(t, html, "<td>40</td>")
	assert.NotContains(t, html, "Notes")
	assert.Equal(t, ".html", r.Extension())
}

func TestRenderHonoursCancelledContext(t *testing.T) {
	r, err := NewHTMLRenderer(nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Render(ctx, PermitData{Number: "001/UGM/03/2025"})
	assert.Error(t, err)
}
