package service

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"pump_bot/internal/models"
	"pump_bot/pkg/logger"
)

// Trader is the slice of the bot the console drives.
type Trader interface {
	CreateOperation(ctx context.Context, symbol string, budget models.Budget) error
	Kill(ctx context.Context, id string) error
	Snapshot() []models.OperationSnapshot
}

// Console reads operator commands from stdin: manual buys, kills and status
// dumps. It is a debugging surface, not part of the signal path.
type Console struct {
	trader Trader
}

func NewConsole(trader Trader) *Console {
	return &Console{trader: trader}
}

func (c *Console) Run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.dispatch(ctx, line)
	}
	if err := scanner.Err(); err != nil {
		logger.Error("console: %v", err)
	}
}

func (c *Console) dispatch(ctx context.Context, line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "status":
		c.printStatus()
	case "buy":
		if len(fields) < 2 {
			fmt.Println("usage: buy SYMBOL [amount|percent%]")
			return
		}
		c.buy(ctx, fields[1:])
	case "kill":
		if len(fields) != 2 {
			fmt.Println("usage: kill OPERATION_ID")
			return
		}
		if err := c.trader.Kill(ctx, fields[1]); err != nil {
			fmt.Println("kill:", err)
		}
	case "help":
		fmt.Println("commands: status | buy SYMBOL [amount|percent%] | kill OPERATION_ID | help")
	default:
		fmt.Printf("unknown command %q, try help\n", fields[0])
	}
}

func (c *Console) printStatus() {
	ops := c.trader.Snapshot()
	if len(ops) == 0 {
		fmt.Println("no active operations")
		return
	}
	for _, op := range ops {
		fmt.Printf("%s %s %s pending=%v lastPrice=%v started=%s\n",
			op.ID, op.AssetPair, op.Status, op.AmountPendingToSell, op.LastPrice,
			op.StartedAt.Format("15:04:05"))
	}
}

func (c *Console) buy(ctx context.Context, args []string) {
	symbol := strings.ToUpper(args[0])
	budget := models.Budget{Amount: 100, Unit: models.BudgetPercentage}

	if len(args) > 1 {
		raw := args[1]
		if strings.HasSuffix(raw, "%") {
			pct, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
			if err != nil {
				fmt.Println("bad percent:", raw)
				return
			}
			budget = models.Budget{Amount: pct, Unit: models.BudgetPercentage}
		} else {
			amount, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				fmt.Println("bad amount:", raw)
				return
			}
			budget = models.Budget{Amount: amount, Unit: models.BudgetAbsolute}
		}
	}

	if err := c.trader.CreateOperation(ctx, symbol, budget); err != nil {
		fmt.Println("buy:", err)
	}
}
