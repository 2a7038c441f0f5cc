package chrome

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/types"
	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// documentSession 基于已保存 HTML 的只读会话, 用于离线校验定位器
type documentSession struct {
	root *html.Node
	doc  *goquery.Document
}

// OpenDocument 解析已保存的页面; 导航与输入操作返回 ErrReadOnly
func OpenDocument(r io.Reader) (Session, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("解析 html 失败: %w", err)
	}
	return &documentSession{
		root: root,
		doc:  goquery.NewDocumentFromNode(root),
	}, nil
}

func (ds *documentSession) Navigate(context.Context, string) error {
	return ErrReadOnly
}

func (ds *documentSession) Click(context.Context, types.Locator) error {
	return ErrReadOnly
}

func (ds *documentSession) SendKeys(context.Context, types.Locator, string) error {
	return ErrReadOnly
}

func (ds *documentSession) Close() error {
	return nil
}

func (ds *documentSession) Present(_ context.Context, loc types.Locator) (bool, error) {
	_, found, err := ds.text(loc)
	return found, err
}

func (ds *documentSession) Text(_ context.Context, loc types.Locator) (string, error) {
	text, found, err := ds.text(loc)
	if err != nil {
		return "", err
	}
	if !found {
		return "", notFound(loc)
	}
	return text, nil
}

func (ds *documentSession) text(loc types.Locator) (string, bool, error) {
	switch loc.Strategy {
	case types.StrategyXPath:
		node, err := htmlquery.Query(ds.root, loc.Expr)
		if err != nil {
			return "", false, fmt.Errorf("查询 %s 失败: %w", loc, err)
		}
		if node == nil {
			return "", false, nil
		}
		return strings.TrimSpace(htmlquery.InnerText(node)), true, nil
	case types.StrategyCSS:
		return selectionText(ds.doc.Find(loc.Expr))
	case types.StrategyID:
		return selectionText(ds.doc.Find(fmt.Sprintf("[id=%q]", loc.Expr)))
	default:
		return "", false, fmt.Errorf("不支持的定位方式 %q", loc.Strategy)
	}
}

func selectionText(sel *goquery.Selection) (string, bool, error) {
	if sel.Length() == 0 {
		return "", false, nil
	}
	return strings.TrimSpace(sel.First().Text()), true, nil
}
