package types

import "fmt"

// Strategy 元素定位方式
type Strategy string

const (
	StrategyXPath Strategy = "xpath"
	StrategyCSS   Strategy = "css"
	StrategyID    Strategy = "id"
)

// Locator 定位页面上的一个元素
type Locator struct {
	Strategy Strategy `json:"strategy"`
	Expr     string   `json:"expr"`
}

func XPath(expr string) Locator { return Locator{Strategy: StrategyXPath, Expr: expr} }
func CSS(expr string) Locator   { return Locator{Strategy: StrategyCSS, Expr: expr} }
func ID(id string) Locator      { return Locator{Strategy: StrategyID, Expr: id} }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Strategy, l.Expr)
}

func (l Locator) IsValid() bool {
	if l.Expr == "" {
		return false
	}
	switch l.Strategy {
	case StrategyXPath, StrategyCSS, StrategyID:
		return true
	default:
		return false
	}
}
