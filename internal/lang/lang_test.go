package lang

import "testing"

func TestForExtension(t *testing.T) {
	t.Parallel()
	cases := []struct {
		ext  string
		want string
	}{
		{".py", "python"},
		{".js", "javascript"},
		{".jsx", "javascript"},
		{".mjs", "javascript"},
		{".ts", "typescript"},
		{".tsx", "tsx"},
		{".php", "php"},
		{".rb", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := ForExtension(c.ext); got != c.want {
			t.Errorf("ForExtension(%q) = %q, want %q", c.ext, got, c.want)
		}
	}
}

func TestQueriesCompile(t *testing.T) {
	t.Parallel()
	for name, l := range Languages {
		if _, err := l.GetDefQuery(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"(a,  b)", "(a, b)"},
		{"(\n  a,\n  b\n)", "( a, b )"},
		{"  x  ", "x"},
		{"", ""},
	}
	for _, c := range cases {
		if got := CollapseWhitespace(c.in); got != c.want {
			t.Errorf("CollapseWhitespace(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
