package minifier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_MinifiesEachMediaType(t *testing.T) {
	m := New()

	out, err := m.String(MediaHTML, "<head>\n  <title> A </title>\n</head>\n<body>\n  <p>  x  </p>\n</body>")
	require.NoError(t, err)
	require.Contains(t, out, "<head>")
	require.Contains(t, out, "</body>")
	require.NotContains(t, out, "\n  ")

	out, err = m.String(MediaCSS, ".a {\n  color: red;\n}\n")
	require.NoError(t, err)
	require.Equal(t, ".a{color:red}", out)

	out, err = m.String(MediaJS, "var answer = 42 ;\n")
	require.NoError(t, err)
	require.NotContains(t, out, "\n")

	out, err = m.String("application/ld+json", "{\n  \"a\": 1\n}")
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, out)
}
