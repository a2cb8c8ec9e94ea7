package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/ip-manager/internal/notify"
	"github.com/iliyamo/ip-manager/internal/repository"
	"github.com/iliyamo/ip-manager/internal/utils"
)

var (
	hashBcrypt bool
	notifyJSON bool

	hashCmd = &cobra.Command{
		Use:   "hash",
		Short: "Print the stored digest of a password or PIN",
		Long: `Print the digest the back office stores for a password or PIN, read from
the terminal or stdin. Useful for seeding accounts by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd, "Secret: ")
			if err != nil {
				return err
			}
			if secret == "" {
				return errors.New("empty secret")
			}
			digest := utils.HashSecret(secret)
			if hashBcrypt {
				if digest, err = utils.HashLegacyPassword(secret, bcrypt.DefaultCost); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	}

	notificationsCmd = &cobra.Command{
		Use:   "notifications",
		Short: "List subscriptions expiring within a week and low-stock items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if _, err := requireSession(ctx, a); err != nil {
					return err
				}
				txs, err := repository.NewTransactionRepo(a.db).ListTransactions(ctx)
				if err != nil {
					return err
				}
				items, err := repository.NewInventoryRepo(a.db).ListInventory(ctx)
				if err != nil {
					return err
				}
				sum := notify.Summarize(txs, items, time.Now())
				if notifyJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(sum)
				}
				printNotifications(cmd.OutOrStdout(), sum)
				return nil
			})
		},
	}
)

func init() {
	hashCmd.Flags().BoolVar(&hashBcrypt, "bcrypt", false, "produce a legacy bcrypt digest instead of SHA-256")
	notificationsCmd.Flags().BoolVar(&notifyJSON, "json", false, "print JSON")
}

func printNotifications(w io.Writer, s notify.Summary) {
	if s.Total == 0 {
		fmt.Fprintln(w, "No notifications.")
		return
	}
	fmt.Fprintf(w, "%d notification(s)\n", s.Total)
	for _, e := range s.Expiring {
		who := e.CustomerName
		if who == "" {
			who = e.ID
		}
		fmt.Fprintf(w, "  expiring  %-24s %-20s %s (%d day(s) left)\n", who, e.ProductName, e.ExpiryDate, e.DaysLeft)
	}
	for _, it := range s.LowStock {
		fmt.Fprintf(w, "  low stock %-24s stock %d (threshold %d)\n", it.Name, it.Stock, it.Threshold())
	}
}
