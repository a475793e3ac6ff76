package web

import (
	"io/fs"
	"strings"
	"testing"
)

func TestFSServesClient(t *testing.T) {
	for _, name := range []string{"index.html", "app.js", "styles.css"} {
		data, err := fs.ReadFile(FS(), name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("%s is empty", name)
		}
	}
	index, _ := fs.ReadFile(FS(), "index.html")
	if !strings.Contains(string(index), "app.js") {
		t.Fatalf("index.html does not load app.js")
	}
}
