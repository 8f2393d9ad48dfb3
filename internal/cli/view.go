package cli

import (
	"fmt"
	"sync"

	"github.com/fatih/color"

	"openalgo-scalper/internal/models"
	"openalgo-scalper/internal/position"
	"openalgo-scalper/pkg/utils"
)

var (
	headerColor   = color.New(color.FgCyan, color.Bold)
	selectedColor = color.New(color.FgYellow, color.Bold)
	gainColor     = color.New(color.FgGreen)
	lossColor     = color.New(color.FgRed)
	dimColor      = color.New(color.Faint)
)

// TerminalView renders session state to the terminal.
type TerminalView struct {
	mu sync.Mutex
}

// NewTerminalView creates a terminal view.
func NewTerminalView() *TerminalView {
	return &TerminalView{}
}

// RenderChain prints the full strike ladder with the selection marked.
func (v *TerminalView) RenderChain(c models.StrikeChain, sel models.SelectionState) {
	v.mu.Lock()
	defer v.mu.Unlock()

	headerColor.Printf("\n%s %s %s\n", c.Underlying, c.Expiry, c.OptionType)
	fmt.Printf("%-6s %-24s %8s %10s %8s\n", "", "SYMBOL", "STRIKE", "LTP", "CHG%")

	for _, r := range c.Rungs {
		marker := " "
		line := fmt.Sprintf("%-6s %-24s %8d %10.2f", r.Offset, r.Symbol, r.Strike, r.LTP)
		chg := utils.GetChangeDisplay(r.LTP, r.PrevClose)
		pct := utils.FormatPercent(chg.ChangePercent)

		if r.Offset == sel.Offset {
			marker = ">"
			selectedColor.Printf("%s %s %8s\n", marker, line, pct)
			continue
		}
		if chg.Positive {
			fmt.Printf("%s %s ", marker, line)
			gainColor.Printf("%8s\n", pct)
		} else {
			fmt.Printf("%s %s ", marker, line)
			lossColor.Printf("%8s\n", pct)
		}
	}
}

// RenderSelection prints the order ticket line.
func (v *TerminalView) RenderSelection(sel models.SelectionState) {
	v.mu.Lock()
	defer v.mu.Unlock()

	fmt.Printf("\n[%s] %s  %s %s  lots=%d  price=%.2f  ltp=%.2f\n",
		sel.Offset, sel.Symbol, sel.Action, sel.OrderType, sel.Lots, sel.Price, sel.OptionLTP)
}

// RenderUnderlying prints the underlying spot line.
func (v *TerminalView) RenderUnderlying(q models.Quote) {
	v.mu.Lock()
	defer v.mu.Unlock()

	chg := utils.GetChangeDisplay(q.LTP, q.PrevClose)
	c := lossColor
	if chg.Positive {
		c = gainColor
	}
	fmt.Printf("%s %.2f ", q.Symbol, q.LTP)
	c.Printf("%s %s%.2f (%s)\n", chg.Arrow, chg.Sign, chg.Change, utils.FormatPercent(chg.ChangePercent))
}

// RenderFunds prints available cash and the day's P&L.
func (v *TerminalView) RenderFunds(f models.Funds) {
	v.mu.Lock()
	defer v.mu.Unlock()

	pl := f.TodayPL()
	c := lossColor
	if pl >= 0 {
		c = gainColor
	}
	fmt.Printf("Cash %s  P&L ", utils.FormatIndianCurrency(f.AvailableCash))
	c.Printf("%s\n", utils.FormatIndianCurrency(pl))
}

// RenderMargin prints the margin estimate for the drafted order.
func (v *TerminalView) RenderMargin(margin float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	dimColor.Printf("Margin required: %s\n", utils.FormatIndianCurrency(margin))
}

// RenderPosition prints the position and its stop-loss coverage.
func (v *TerminalView) RenderPosition(cov position.Coverage) {
	v.mu.Lock()
	defer v.mu.Unlock()

	lots := cov.Position.Lots()
	if lots == 0 {
		dimColor.Println("Position: flat")
		return
	}

	fmt.Printf("Position: %s %d lot(s)  covered=%d  uncovered=%d\n",
		cov.Position.Direction(), lots, cov.CoveredLots, cov.UncoveredLots)

	for _, o := range cov.Orders {
		ts := utils.ExtractTimeFromTimestamp(o.Timestamp)
		dimColor.Printf("  SL %s %s qty=%d trig=%.2f [%s] %s\n",
			o.OrderID, o.Action, o.Quantity, o.TriggerPrice, o.Status, ts)
	}
}

// ChainRebuilt prints a divider noting the chain was replaced.
func (v *TerminalView) ChainRebuilt(reason string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	dimColor.Printf("--- chain rebuilt: %s ---\n", reason)
}
