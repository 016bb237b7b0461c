package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_BlockText(t *testing.T) {
	input := `<html><head><title>Ignored</title><style>p{}</style></head>
<body>
<nav>Home | About</nav>
<h1>Quarterly report</h1>
<p>Revenue   grew
  strongly.</p>
<ul><li>Item one</li><li>Item two</li></ul>
<script>var x = 1;</script>
<footer>Copyright</footer>
</body></html>`

	p := &HTMLParser{}
	text, err := p.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Quarterly report\nRevenue grew strongly.\nItem one\nItem two"
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestHTMLParser_EmptyBody(t *testing.T) {
	p := &HTMLParser{}
	text, err := p.Parse(strings.NewReader("<html><body></body></html>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}
