package pdf

import (
	"strings"

	"golang.org/x/net/html"
)

func parseForTest(src string) (*html.Node, error) {
	return html.Parse(strings.NewReader(src))
}
