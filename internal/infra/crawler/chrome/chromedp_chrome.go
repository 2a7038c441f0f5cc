package chrome

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/types"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

type chromedpOpener struct {
	opts Options
}

func InitChromedpOpener(opts Options) Opener {
	return &chromedpOpener{opts: opts.withDefaults()}
}

type chromedpSession struct {
	allocCtxFuc   context.CancelFunc
	pageCtx       context.Context
	pageCtxFuc    context.CancelFunc
	timeoutCtxFuc context.CancelFunc
	actionTimeout time.Duration
	closeOnce     sync.Once
	closeErr      error
}

func (o *chromedpOpener) Open(ctx context.Context) (Session, error) {
	// 整个会话受 LifeTime 约束, 到期后所有操作都会返回
	ctx, cancelTimeout := context.WithTimeout(ctx, o.opts.LifeTime)
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, o.opts.Endpoint)

	var ctxOpts []chromedp.ContextOption
	if o.opts.Incognito {
		// 远程浏览器上新建独立的浏览器上下文, 关闭时一并销毁
		ctxOpts = append(ctxOpts, chromedp.WithNewBrowserContext())
	}
	pageCtx, cancelPage := chromedp.NewContext(allocCtx, ctxOpts...)

	s := &chromedpSession{
		allocCtxFuc:   cancelAlloc,
		pageCtx:       pageCtx,
		pageCtxFuc:    cancelPage,
		timeoutCtxFuc: cancelTimeout,
		actionTimeout: o.opts.ActionTimeout,
	}

	actions := []chromedp.Action{}
	if o.opts.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(o.opts.UserAgent))
	}
	// 第一次 Run 建立连接并创建标签页
	if err := chromedp.Run(pageCtx, actions...); err != nil {
		s.Close()
		return nil, fmt.Errorf("连接远程浏览器 %s 失败: %w", o.opts.Endpoint, err)
	}
	return s, nil
}

func (cs *chromedpSession) Close() error {
	cs.closeOnce.Do(func() {
		cs.closeErr = chromedp.Cancel(cs.pageCtx)
		cs.pageCtxFuc()
		cs.allocCtxFuc()
		cs.timeoutCtxFuc()
	})
	return cs.closeErr
}

// runCtx 每个操作都有截止时间: 调用方的, 或者 actionTimeout
func (cs *chromedpSession) runCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return boundCtx(cs.pageCtx, ctx, cs.actionTimeout)
}

func (cs *chromedpSession) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := cs.runCtx(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("导航到 %s 失败: %w", url, err)
	}
	return nil
}

func (cs *chromedpSession) nodes(ctx context.Context, loc types.Locator) ([]*cdp.Node, error) {
	by, err := queryOption(loc)
	if err != nil {
		return nil, err
	}
	runCtx, cancel := cs.runCtx(ctx)
	defer cancel()

	var nodes []*cdp.Node
	// AtLeast(0) 让查询在没有匹配时立即返回, 等待由上层负责
	if err := chromedp.Run(runCtx, chromedp.Nodes(loc.Expr, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("查询 %s 失败: %w", loc, err)
	}
	return nodes, nil
}

func (cs *chromedpSession) first(ctx context.Context, loc types.Locator) (*cdp.Node, error) {
	nodes, err := cs.nodes(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, notFound(loc)
	}
	return nodes[0], nil
}

func (cs *chromedpSession) Present(ctx context.Context, loc types.Locator) (bool, error) {
	nodes, err := cs.nodes(ctx, loc)
	if err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

func (cs *chromedpSession) Click(ctx context.Context, loc types.Locator) error {
	node, err := cs.first(ctx, loc)
	if err != nil {
		return err
	}
	runCtx, cancel := cs.runCtx(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.MouseClickNode(node)); err != nil {
		return fmt.Errorf("点击 %s 失败: %w", loc, err)
	}
	return nil
}

func (cs *chromedpSession) SendKeys(ctx context.Context, loc types.Locator, text string) error {
	node, err := cs.first(ctx, loc)
	if err != nil {
		return err
	}
	runCtx, cancel := cs.runCtx(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.SendKeys([]cdp.NodeID{node.NodeID}, text, chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("向 %s 输入失败: %w", loc, err)
	}
	return nil
}

func (cs *chromedpSession) Text(ctx context.Context, loc types.Locator) (string, error) {
	node, err := cs.first(ctx, loc)
	if err != nil {
		return "", err
	}
	runCtx, cancel := cs.runCtx(ctx)
	defer cancel()
	var text string
	if err := chromedp.Run(runCtx, chromedp.Text([]cdp.NodeID{node.NodeID}, &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("读取 %s 文本失败: %w", loc, err)
	}
	return text, nil
}

func queryOption(loc types.Locator) (chromedp.QueryOption, error) {
	switch loc.Strategy {
	case types.StrategyXPath:
		return chromedp.BySearch, nil
	case types.StrategyCSS:
		return chromedp.ByQuery, nil
	case types.StrategyID:
		return chromedp.ByID, nil
	default:
		return nil, fmt.Errorf("不支持的定位方式 %q", loc.Strategy)
	}
}
