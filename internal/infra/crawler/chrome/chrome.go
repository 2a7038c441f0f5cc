package chrome

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/types"
)

const (
	DriverChromedp = "chromedp"
	DriverRod      = "rod"
)

const (
	// DefaultLifeTime 会话总时长上限, 远程浏览器无响应时一次尝试也必须结束
	DefaultLifeTime = 2 * time.Minute
	// DefaultActionTimeout 单次导航/点击/输入/读取的时长上限
	DefaultActionTimeout = 30 * time.Second
)

var (
	// ErrElementNotFound 定位器在当前页面上没有匹配的元素
	ErrElementNotFound = errors.New("元素未找到")
	// ErrReadOnly 离线文档会话不支持交互操作
	ErrReadOnly = errors.New("会话只读")
)

// Session 一次抓取尝试独占的浏览器会话, 关闭后不可复用
type Session interface {
	Navigate(ctx context.Context, url string) error
	// Present 立即检查元素是否存在, 不等待
	Present(ctx context.Context, loc types.Locator) (bool, error)
	Click(ctx context.Context, loc types.Locator) error
	SendKeys(ctx context.Context, loc types.Locator, text string) error
	Text(ctx context.Context, loc types.Locator) (string, error)
	Close() error
}

// Opener 每次调用 Open 创建一个全新的会话
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// Options 远程浏览器会话选项, 无头模式由远程端点自身决定
type Options struct {
	Endpoint  string
	Incognito bool
	UserAgent string
	// LifeTime 会话总时长, <= 0 时使用 DefaultLifeTime
	LifeTime time.Duration
	// ActionTimeout 调用方 ctx 没有截止时间时, 单个操作的时长上限; <= 0 时使用 DefaultActionTimeout
	ActionTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.LifeTime <= 0 {
		o.LifeTime = DefaultLifeTime
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = DefaultActionTimeout
	}
	return o
}

func InitOpener(driver string, opts Options) (Opener, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("远程自动化端点为空")
	}
	switch driver {
	case "", DriverChromedp:
		return InitChromedpOpener(opts), nil
	case DriverRod:
		return InitRodOpener(opts), nil
	default:
		return nil, fmt.Errorf("未知的浏览器驱动 %q", driver)
	}
}

// boundCtx 把调用方的截止时间带到 base 上; 调用方没有截止时间时使用 fallback
func boundCtx(base, caller context.Context, fallback time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := caller.Deadline(); ok {
		return context.WithDeadline(base, deadline)
	}
	return context.WithTimeout(base, fallback)
}

func notFound(loc types.Locator) error {
	return fmt.Errorf("%w: %s", ErrElementNotFound, loc)
}
