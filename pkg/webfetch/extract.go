package webfetch

import (
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped — элементы, текст которых не является содержимым страницы.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
}

// ExtractText разбирает HTML и возвращает содержательные строки текста.
//
// Каждый текстовый узел начинает новую строку. Строки обрезаются по краям,
// пустые и короткие (не длиннее minLen символов) отбрасываются,
// остаётся не более maxLines строк.
func ExtractText(r io.Reader, maxLines, minLen int) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var raw strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			raw.WriteString(n.Data)
			raw.WriteByte('\n')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return relevantLines(raw.String(), maxLines, minLen), nil
}

func relevantLines(text string, maxLines, minLen int) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || utf8.RuneCountInString(line) <= minLen {
			continue
		}
		kept = append(kept, line)
		if maxLines > 0 && len(kept) == maxLines {
			break
		}
	}
	return strings.Join(kept, "\n")
}
