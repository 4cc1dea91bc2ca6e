// Package loc 提供 id.loc.gov 主题词检索客户端
package loc

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kltng/lcsh-validation-api/internal/application/recommend"
	"github.com/kltng/lcsh-validation-api/internal/domain/entity"
)

// ErrMalformed 响应无法解析为检索结果页
var ErrMalformed = recommend.ErrUpstreamMalformed

const (
	listingTableClass = "id-std"
	groupBodyClass    = "tbody-group"
	resultsContainer  = "main"
)

// ParseListing 解析 id.loc.gov 检索结果页
// 结果容器存在而结果表缺失视为零命中；残缺条目逐条跳过
// 文档不可解析或不是检索结果页（维护页、错误页）时返回 ErrMalformed
func ParseListing(r io.Reader, baseURL string) ([]entity.Candidate, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	body := findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	if body == nil || body.FirstChild == nil {
		return nil, fmt.Errorf("%w: document has no body", ErrMalformed)
	}

	base, _ := url.Parse(strings.TrimRight(baseURL, "/"))

	table := findFirst(body, func(n *html.Node) bool {
		return n.DataAtom == atom.Table && hasClass(n, listingTableClass)
	})
	if table == nil {
		container := findFirst(body, func(n *html.Node) bool { return attr(n, "id") == resultsContainer })
		if container == nil {
			return nil, fmt.Errorf("%w: not a search results page", ErrMalformed)
		}
		return []entity.Candidate{}, nil
	}

	out := make([]entity.Candidate, 0, 16)
	for _, group := range children(table, func(n *html.Node) bool {
		return n.DataAtom == atom.Tbody && hasClass(n, groupBodyClass)
	}) {
		if c, ok := parseGroup(group, base); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// parseGroup 读取结果组的首行：第二列为链接与标签，最后一列为标识符
func parseGroup(group *html.Node, base *url.URL) (entity.Candidate, bool) {
	row := findFirst(group, func(n *html.Node) bool { return n.DataAtom == atom.Tr })
	if row == nil {
		return entity.Candidate{}, false
	}
	cells := children(row, func(n *html.Node) bool { return n.DataAtom == atom.Td })
	if len(cells) < 2 {
		return entity.Candidate{}, false
	}

	link := findFirst(cells[1], func(n *html.Node) bool { return n.DataAtom == atom.A })
	if link == nil {
		return entity.Candidate{}, false
	}
	label := collapseSpace(textContent(link))
	id := collapseSpace(textContent(cells[len(cells)-1]))
	if label == "" || id == "" {
		return entity.Candidate{}, false
	}

	return entity.Candidate{
		Label: label,
		ID:    id,
		URL:   resolveHref(base, attr(link, "href")),
	}, true
}

func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil || !strings.HasPrefix(href, "/") {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// children 返回直接子元素中满足条件的节点
func children(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			out = append(out, c)
		}
	}
	return out
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
