package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlain(t *testing.T) {
	p := Plain(`Rice <kg> & "water"`)
	assert.Equal(t, `Rice <kg> & "water"`, p.PlainText())
	assert.Equal(t, "Rice &lt;kg&gt; &amp; &#34;water&#34;", p.HTML())
}

func TestComposite(t *testing.T) {
	t.Run("normalises whitespace", func(t *testing.T) {
		c := Textf("  People in", "1.0 m\n", Plain("\tof water "))
		assert.Equal(t, "People in 1.0 m of water", c.PlainText())
	})

	t.Run("nested composites render each part", func(t *testing.T) {
		c := Textf("a <b>", Textf("c", Plain("&")))
		assert.Equal(t, "a <b> c &", c.PlainText())
		assert.Equal(t, "a &lt;b&gt; c &amp;", c.HTML())
	})

	t.Run("ignores unsupported parts", func(t *testing.T) {
		assert.Equal(t, "x", Textf(42, "x").PlainText())
	})
}

func sampleTable() Table {
	return Table{Rows: []Row{
		HeaderRow("Needs should be provided weekly", "Total"),
		DataRow("Rice [kg]", "2,800"),
	}}
}

func TestTextSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextSink(&buf).WriteTable(sampleTable()))

	want := "Needs should be provided weekly\tTotal\n" +
		"-------------------------------------\n" +
		"Rice [kg]\t2,800\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, want, RenderText(sampleTable()))
}

func TestHTMLSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewHTMLSink(&buf).WriteTable(sampleTable()))

	assert.Equal(t,
		`<table class="table table-striped condensed"><tbody>`+
			`<tr><th>Needs should be provided weekly</th><th>Total</th></tr>`+
			`<tr><td>Rice [kg]</td><td>2,800</td></tr>`+
			`</tbody></table>`,
		buf.String())
	assert.NotContains(t, buf.String(), "\n")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestSinkWriteErrors(t *testing.T) {
	assert.Error(t, NewTextSink(failingWriter{}).WriteTable(sampleTable()))
	assert.Error(t, NewHTMLSink(failingWriter{}).WriteTable(sampleTable()))
}
