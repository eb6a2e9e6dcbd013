// orderctl is a command-line client for the conditional order server.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"conditional_orderbook/internal/core"
	"conditional_orderbook/pkg/apiclient"
)

var (
	// Version information (set via build flags)
	version   = "dev"
	buildTime = "unknown"

	serverURL string
	timeout   time.Duration
)

func client() *apiclient.Client {
	return apiclient.New(serverURL, timeout)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "orderctl",
		Short:        "Manage conditional orders",
		Version:      fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://127.0.0.1:8080", "Order server base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	root.AddCommand(
		newCreateCmd(),
		newGetCmd(),
		newListCmd(),
		newCancelCmd(),
		newFillCmd(),
		newDeleteCmd(),
		newHealthCmd(),
	)
	return root
}

func newCreateCmd() *cobra.Command {
	var (
		pair     string
		side     string
		price    string
		quantity string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new limit order",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedSide, err := core.ParseOrderSide(side)
			if err != nil {
				return err
			}
			px, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", price, err)
			}
			qty, err := decimal.NewFromString(quantity)
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", quantity, err)
			}

			order, err := client().CreateOrder(cmd.Context(), core.NewOrderRequest{
				Pair:     pair,
				Side:     parsedSide,
				Price:    px,
				Quantity: qty,
			})
			if err != nil {
				return err
			}
			return printJSON(order)
		},
	}
	cmd.Flags().StringVar(&pair, "pair", "", "Trading pair, e.g. BTC/USDT")
	cmd.Flags().StringVar(&side, "side", "", "Order side: buy or sell")
	cmd.Flags().StringVar(&price, "price", "", "Limit price")
	cmd.Flags().StringVar(&quantity, "quantity", "", "Order quantity")
	_ = cmd.MarkFlagRequired("pair")
	_ = cmd.MarkFlagRequired("side")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <order-id>",
		Short: "Fetch one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := client().GetOrder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(order)
		},
	}
}

func newListCmd() *cobra.Command {
	var (
		pair   string
		status string
		limit  int64
		offset int64
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := core.ListOrdersQuery{Pair: pair, Limit: limit, Offset: offset}
			if status != "" {
				parsed, err := core.ParseOrderStatus(status)
				if err != nil {
					return err
				}
				q.Status = parsed
			}

			orders, err := client().ListOrders(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(orders)
		},
	}
	cmd.Flags().StringVar(&pair, "pair", "", "Filter by trading pair")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().Int64Var(&limit, "limit", 0, "Maximum number of orders (0 = no limit)")
	cmd.Flags().Int64Var(&offset, "offset", 0, "Number of orders to skip")
	return cmd
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := client().CancelOrder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(order)
		},
	}
}

func newFillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fill <order-id>",
		Short: "Force an order to filled (testing helper)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := client().SetOrderStatus(cmd.Context(), args[0], core.StatusFilled)
			if err != nil {
				return err
			}
			return printJSON(order)
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <order-id>",
		Short: "Delete an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().DeleteOrder(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("deleted", args[0])
			return nil
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
