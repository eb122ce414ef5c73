package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"lejting/internal/export"
	"lejting/internal/service"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

var commands = []subcommands.Command{
	&itemsCmd{},
	&addCmd{},
	&removeCmd{},
	&rentCmd{},
	&returnCmd{},
	&showCmd{},
	&txCmd{},
}

// run opens the ledger, calls fn and saves when fn reports a change.
func run(ctx context.Context, command string, fn func(a *app) (bool, error)) subcommands.ExitStatus {
	a, err := openApp(ctx, command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	changed, err := fn(a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if changed {
		if err := a.save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving data: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

func usageError(f *flag.FlagSet, msg string) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, msg)
	f.Usage()
	return subcommands.ExitUsageError
}

type itemsCmd struct {
	available bool
}

func (*itemsCmd) Name() string     { return "items" }
func (*itemsCmd) Synopsis() string { return "list rental items" }
func (*itemsCmd) Usage() string {
	return `lejting items [-available]

  Lists the items in the order they were added.
`
}

func (c *itemsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.available, "available", false, "only list items that can be rented")
}

func (c *itemsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, c.Name(), func(a *app) (bool, error) {
		items := slices.Collect(a.svc.Items(c.available))
		if len(items) == 0 {
			fmt.Println("No items in the system.")
			return false, nil
		}
		fmt.Println("--- Rental Items ---")
		for _, item := range items {
			fmt.Println(itemLine(item))
		}
		return false, nil
	})
}

type addCmd struct {
	description string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add an item to the catalog" }
func (*addCmd) Usage() string {
	return `lejting add [-d <description>] <item_id> <name> <daily_rate>
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.description, "d", "", "item description")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 3 {
		return usageError(f, "add requires <item_id> <name> <daily_rate>")
	}
	id, name := strings.TrimSpace(f.Arg(0)), strings.TrimSpace(f.Arg(1))
	rate, err := decimal.NewFromString(f.Arg(2))
	if err != nil {
		return usageError(f, fmt.Sprintf("invalid daily rate %q", f.Arg(2)))
	}

	return run(ctx, c.Name(), func(a *app) (bool, error) {
		if err := a.svc.AddItem(ctx, id, name, rate, c.description); err != nil {
			return false, err
		}
		fmt.Printf("Added item: %s (ID: %s)\n", name, id)
		return true, nil
	})
}

type removeCmd struct{}

func (*removeCmd) Name() string             { return "remove" }
func (*removeCmd) Synopsis() string         { return "remove an item that is not rented" }
func (*removeCmd) Usage() string            { return "lejting remove <item_id>\n" }
func (*removeCmd) SetFlags(_ *flag.FlagSet) {}

func (c *removeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "remove requires <item_id>")
	}
	id := f.Arg(0)

	return run(ctx, c.Name(), func(a *app) (bool, error) {
		item, err := a.svc.GetItem(id)
		if err != nil {
			return false, err
		}
		if err := a.svc.RemoveItem(ctx, id); err != nil {
			return false, err
		}
		fmt.Printf("Removed item: %s (ID: %s)\n", item.Name, id)
		return true, nil
	})
}

type rentCmd struct{}

func (*rentCmd) Name() string             { return "rent" }
func (*rentCmd) Synopsis() string         { return "rent an item for a number of days" }
func (*rentCmd) Usage() string            { return "lejting rent <item_id> <renter_name> <days>\n" }
func (*rentCmd) SetFlags(_ *flag.FlagSet) {}

func (c *rentCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 3 {
		return usageError(f, "rent requires <item_id> <renter_name> <days>")
	}
	id, renter := f.Arg(0), strings.TrimSpace(f.Arg(1))
	if renter == "" {
		return usageError(f, "renter name cannot be empty")
	}
	days, err := strconv.Atoi(f.Arg(2))
	if err != nil {
		return usageError(f, fmt.Sprintf("invalid number of days %q", f.Arg(2)))
	}

	return run(ctx, c.Name(), func(a *app) (bool, error) {
		tx, err := a.svc.RentItem(ctx, id, renter, days)
		if err != nil {
			return false, err
		}
		item, _ := a.svc.GetItem(id)
		writeReceipt(os.Stdout, tx, item.Name)
		return true, nil
	})
}

type returnCmd struct{}

func (*returnCmd) Name() string             { return "return" }
func (*returnCmd) Synopsis() string         { return "return a rented item" }
func (*returnCmd) Usage() string            { return "lejting return <item_id>\n" }
func (*returnCmd) SetFlags(_ *flag.FlagSet) {}

func (c *returnCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "return requires <item_id>")
	}
	id := f.Arg(0)

	return run(ctx, c.Name(), func(a *app) (bool, error) {
		before, err := a.svc.GetItem(id)
		if err != nil {
			return false, err
		}
		if _, err := a.svc.ReturnItem(ctx, id); err != nil {
			return false, err
		}
		fmt.Printf("Item %s (ID: %s) returned by %s\n", before.Name, id, before.Renter())
		return true, nil
	})
}

type showCmd struct{}

func (*showCmd) Name() string             { return "show" }
func (*showCmd) Synopsis() string         { return "show the details of an item" }
func (*showCmd) Usage() string            { return "lejting show <item_id>\n" }
func (*showCmd) SetFlags(_ *flag.FlagSet) {}

func (c *showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "show requires <item_id>")
	}

	return run(ctx, c.Name(), func(a *app) (bool, error) {
		item, err := a.svc.GetItem(f.Arg(0))
		if err != nil {
			return false, err
		}
		writeItemDetails(os.Stdout, item)
		return false, nil
	})
}

type txCmd struct {
	active bool
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list rental transactions" }
func (*txCmd) Usage() string {
	return `lejting tx [-active]

  Lists transactions. Without an archive only the transactions of the
  current run are known, so the list is empty.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.active, "active", false, "only list transactions that are not completed")
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, c.Name(), func(a *app) (bool, error) {
		txs, err := a.svc.Transactions(ctx, c.active)
		if err != nil {
			return false, err
		}
		if len(txs) == 0 {
			fmt.Println("No transactions found.")
			return false, nil
		}
		fmt.Println("--- Rental Transactions ---")
		for _, tx := range txs {
			fmt.Println(transactionLine(tx))
		}
		return false, nil
	})
}

type seedCmd struct{}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "add the configured catalog items that are missing" }
func (*seedCmd) Usage() string {
	return `lejting seed

  Adds the items listed under "items" in the config, or the built-in demo
  catalog when the config has none. Items already present are left as is.
`
}
func (*seedCmd) SetFlags(_ *flag.FlagSet) {}

func (c *seedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, c.Name(), func(a *app) (bool, error) {
		catalog := a.cfg.Items
		if len(catalog) == 0 {
			catalog = service.DefaultCatalog()
		}
		added, err := a.svc.Seed(ctx, catalog)
		if added > 0 {
			fmt.Printf("Added %d item(s)\n", added)
		} else if err == nil {
			fmt.Println("Catalog already present.")
		}
		return added > 0, err
	})
}

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export items and transactions to an xlsx workbook" }
func (*exportCmd) Usage() string {
	return `lejting export [-o <file.xlsx>]
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output file (defaults to a timestamped file in exports.path)")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, c.Name(), func(a *app) (bool, error) {
		out := c.output
		if out == "" {
			out = filepath.Join(a.cfg.Exports.Path, export.FileName(time.Now()))
		}
		txs, err := a.svc.Transactions(ctx, false)
		if err != nil {
			return false, err
		}
		items := slices.Collect(a.svc.Items(false))
		if err := export.Workbook(out, items, txs); err != nil {
			return false, err
		}
		a.logger.Info().Str("path", out).Int("items", len(items)).Int("transactions", len(txs)).Msg("Workbook exported")
		fmt.Printf("Exported to %s\n", out)
		return false, nil
	})
}

type backupCmd struct{}

func (*backupCmd) Name() string             { return "backup" }
func (*backupCmd) Synopsis() string         { return "back up the data file and the archive now" }
func (*backupCmd) Usage() string            { return "lejting backup\n" }
func (*backupCmd) SetFlags(_ *flag.FlagSet) {}

func (c *backupCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, c.Name(), func(a *app) (bool, error) {
		written, err := a.backup.PerformBackup()
		for _, path := range written {
			fmt.Printf("Backup written: %s\n", path)
		}
		if err != nil {
			return false, err
		}
		if len(written) == 0 {
			fmt.Println("Nothing to back up.")
		}
		if removed := a.backup.CleanupOldBackups(); removed > 0 {
			fmt.Printf("Removed %d old backup(s)\n", removed)
		}
		return false, nil
	})
}
