package watcher

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"alpha_sim/internal/strategy"

	"github.com/shopspring/decimal"
)

type CommandDoc struct {
	Name        string
	Description string
	Example     string
}

// HandleCommand answers an inbound chat command. It only reads state.
func (w *Watcher) HandleCommand(cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return ""
	}

	// "/status@sim_bot" in group chats
	name, _, _ := strings.Cut(strings.ToLower(parts[0]), "@")

	switch name {
	case "/ping":
		return "Pong 🏓"
	case "/status":
		return w.getStatus()
	case "/positions":
		return w.getPositions()
	case "/fib":
		return handleFibCommand(parts)
	case "/help":
		return w.getHelp()
	default:
		return "Unknown command. Try /status, /positions or /help."
	}
}

func (w *Watcher) getStatus() string {
	s := w.portfolio.Summary()

	w.mu.RLock()
	cycles, last, bullish := w.cycles, w.lastCycle, w.bullish
	w.mu.RUnlock()

	lastStr := "never"
	if !last.IsZero() {
		lastStr = last.UTC().Format("15:04:05 MST")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *SIMULATION STATUS* (%s)\n", w.config.Version))
	sb.WriteString(fmt.Sprintf("Uptime: %s | Cycles: %d | Last: %s\n",
		time.Since(w.startTime).Truncate(time.Second), cycles, lastStr))
	sb.WriteString(fmt.Sprintf("Market (%s) bullishness: %d\n", w.config.ReferenceAsset, bullish))
	sb.WriteString(fmt.Sprintf("Balance: %s (start %s)\n", s.Balance.StringFixed(2), s.InitialBalance.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Realized PnL: %s\n", s.TotalPnL.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Trades: %d (W %d / L %d) | Open: %d", s.NumTrades, s.Wins, s.Losses, s.OpenPositions))
	return sb.String()
}

func (w *Watcher) getPositions() string {
	open := w.portfolio.OpenPositions()
	if len(open) == 0 {
		return "No open positions."
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Asset < open[j].Asset })

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📂 *OPEN POSITIONS* (%d)\n", len(open)))
	for _, p := range open {
		sb.WriteString(fmt.Sprintf("• %s @ %s | SL %s | TP %s | held %s",
			p.Asset, fmtPrice(p.EntryPrice), fmtPrice(p.StopLoss), fmtPrice(p.TakeProfit),
			time.Since(p.EntryTime).Truncate(time.Minute)))
		if price, ok := w.lastPrice(p.Asset); ok {
			sb.WriteString(fmt.Sprintf(" | PnL %s", p.UnrealizedPnL(price).StringFixed(2)))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func handleFibCommand(parts []string) string {
	const usage = "Usage: /fib <swing_low> <swing_high>"
	if len(parts) != 3 {
		return usage
	}
	low, err1 := decimal.NewFromString(parts[1])
	high, err2 := decimal.NewFromString(parts[2])
	if err1 != nil || err2 != nil {
		return usage
	}
	if !high.GreaterThan(low) {
		return "⚠️ Swing high must be above swing low."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📐 *FIB LEVELS* %s → %s\n", fmtPrice(low), fmtPrice(high)))
	for _, lvl := range strategy.FibLevels(low, high) {
		sb.WriteString(fmt.Sprintf("%s: %s\n", lvl.Label, fmtPrice(lvl.Price)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (w *Watcher) getHelp() string {
	var sb strings.Builder
	sb.WriteString("🤖 *Commands*\n")
	for _, c := range w.commands {
		sb.WriteString(fmt.Sprintf("%s: %s\n  e.g. %s\n", c.Name, c.Description, c.Example))
	}
	return strings.TrimRight(sb.String(), "\n")
}
