package chrome

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/types"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// wsConn 与远程浏览器之间的 websocket, 会话结束时必须关闭
type wsConn interface {
	cdp.WebSocketable
	Close() error
}

type rodOpener struct {
	opts    Options
	resolve func(endpoint string) (string, error)
	dial    func(ctx context.Context, wsURL string) (wsConn, error)
}

func InitRodOpener(opts Options) Opener {
	return &rodOpener{
		opts:    opts.withDefaults(),
		resolve: launcher.ResolveURL,
		dial:    dialWebSocket,
	}
}

// deadlineDialer 握手阶段 rod 不检查 ctx, 用连接截止时间代替
type deadlineDialer struct {
	inner cdp.Dialer
	conn  net.Conn
}

func (d *deadlineDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := d.inner.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	d.conn = conn
	return conn, nil
}

func dialWebSocket(ctx context.Context, wsURL string) (wsConn, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	dialer := &deadlineDialer{inner: &net.Dialer{}}
	if u.Scheme == "wss" {
		dialer.inner = &tls.Dialer{}
		if u.Port() == "" {
			u.Host += ":443"
		}
	}

	ws := &cdp.WebSocket{Dialer: dialer}
	if err := ws.Connect(ctx, u.String(), nil); err != nil {
		if dialer.conn != nil {
			_ = dialer.conn.Close()
		}
		return nil, err
	}
	// 握手完成后由各次调用自己的 ctx 控制超时
	_ = dialer.conn.SetDeadline(time.Time{})
	return ws, nil
}

type rodSession struct {
	ctx           context.Context
	ws            wsConn
	browser       *rod.Browser
	page          *rod.Page
	incognito     bool
	actionTimeout time.Duration
	cancel        context.CancelFunc
	closeOnce     sync.Once
	closeErr      error
}

// resolveControlURL ws/wss 地址直接使用; 其他地址经 /json/version 解析.
// launcher.ResolveURL 不接受 ctx, 这里用 ctx 限制等待时间.
func (o *rodOpener) resolveControlURL(ctx context.Context) (string, error) {
	if strings.HasPrefix(o.opts.Endpoint, "ws://") || strings.HasPrefix(o.opts.Endpoint, "wss://") {
		return o.opts.Endpoint, nil
	}
	type resolved struct {
		url string
		err error
	}
	ch := make(chan resolved, 1)
	go func() {
		u, err := o.resolve(o.opts.Endpoint)
		ch <- resolved{u, err}
	}()
	select {
	case r := <-ch:
		return r.url, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (o *rodOpener) Open(ctx context.Context) (Session, error) {
	// 整个会话受 LifeTime 约束, 取消 ctx 会中断所有进行中的调用
	ctx, cancel := context.WithTimeout(ctx, o.opts.LifeTime)

	controlURL, err := o.resolveControlURL(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("解析远程浏览器地址 %s 失败: %w", o.opts.Endpoint, err)
	}
	ws, err := o.dial(ctx, controlURL)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("连接远程浏览器 %s 失败: %w", o.opts.Endpoint, err)
	}

	s := &rodSession{ctx: ctx, ws: ws, cancel: cancel, actionTimeout: o.opts.ActionTimeout}
	browser := rod.New().Client(cdp.New().Start(ws)).Context(ctx)
	if err := browser.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("连接远程浏览器 %s 失败: %w", o.opts.Endpoint, err)
	}
	s.browser = browser

	if o.opts.Incognito {
		// 关闭无痕上下文只销毁本次会话, 不影响远程浏览器进程
		incognito, err := browser.Incognito()
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("创建无痕上下文失败: %w", err)
		}
		s.browser = incognito
		s.incognito = true
	}

	page, err := stealth.Page(s.browser)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("创建页面失败: %w", err)
	}
	s.page = page

	if o.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: o.opts.UserAgent}); err != nil {
			s.Close()
			return nil, fmt.Errorf("设置 user agent 失败: %w", err)
		}
	}
	return s, nil
}

func (rs *rodSession) Close() error {
	rs.closeOnce.Do(func() {
		var errs []error
		if rs.page != nil {
			errs = append(errs, rs.page.Close())
		}
		// 非无痕模式下 browser 是远程浏览器本身, 不能关闭
		if rs.incognito {
			errs = append(errs, rs.browser.Close())
		}
		rs.cancel()
		// 取消 ctx 不会关闭底层连接, 必须显式关闭
		errs = append(errs, rs.ws.Close())
		rs.closeErr = errors.Join(errs...)
	})
	return rs.closeErr
}

// pageCtx 每个操作都有截止时间: 调用方的, 或者 actionTimeout, 且不超过会话时长
func (rs *rodSession) pageCtx(ctx context.Context) (*rod.Page, context.CancelFunc) {
	runCtx, cancel := boundCtx(rs.ctx, ctx, rs.actionTimeout)
	return rs.page.Context(runCtx), cancel
}

func (rs *rodSession) Navigate(ctx context.Context, pageURL string) error {
	page, cancel := rs.pageCtx(ctx)
	defer cancel()
	if err := page.Navigate(pageURL); err != nil {
		return fmt.Errorf("导航到 %s 失败: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("等待 %s 加载失败: %w", pageURL, err)
	}
	return nil
}

func (rs *rodSession) lookup(page *rod.Page, loc types.Locator) (bool, *rod.Element, error) {
	var (
		has bool
		el  *rod.Element
		err error
	)
	switch loc.Strategy {
	case types.StrategyXPath:
		has, el, err = page.HasX(loc.Expr)
	case types.StrategyCSS:
		has, el, err = page.Has(loc.Expr)
	case types.StrategyID:
		has, el, err = page.Has(fmt.Sprintf("[id=%q]", loc.Expr))
	default:
		return false, nil, fmt.Errorf("不支持的定位方式 %q", loc.Strategy)
	}
	if err != nil {
		return false, nil, fmt.Errorf("查询 %s 失败: %w", loc, err)
	}
	return has, el, nil
}

func (rs *rodSession) first(page *rod.Page, loc types.Locator) (*rod.Element, error) {
	has, el, err := rs.lookup(page, loc)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, notFound(loc)
	}
	return el, nil
}

func (rs *rodSession) Present(ctx context.Context, loc types.Locator) (bool, error) {
	page, cancel := rs.pageCtx(ctx)
	defer cancel()
	has, _, err := rs.lookup(page, loc)
	return has, err
}

func (rs *rodSession) Click(ctx context.Context, loc types.Locator) error {
	page, cancel := rs.pageCtx(ctx)
	defer cancel()
	el, err := rs.first(page, loc)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("点击 %s 失败: %w", loc, err)
	}
	return nil
}

func (rs *rodSession) SendKeys(ctx context.Context, loc types.Locator, text string) error {
	page, cancel := rs.pageCtx(ctx)
	defer cancel()
	el, err := rs.first(page, loc)
	if err != nil {
		return err
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("向 %s 输入失败: %w", loc, err)
	}
	return nil
}

func (rs *rodSession) Text(ctx context.Context, loc types.Locator) (string, error) {
	page, cancel := rs.pageCtx(ctx)
	defer cancel()
	el, err := rs.first(page, loc)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("读取 %s 文本失败: %w", loc, err)
	}
	return text, nil
}
