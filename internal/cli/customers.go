package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/five82/swiftrun/internal/app"
	"github.com/five82/swiftrun/internal/customer"
)

func (c *CLI) customersCommand() *Command {
	var search string
	return &Command{
		Name:    "customers",
		Summary: "List or manage saved contacts",
		Usage:   "swiftrun customers [--search TERM] | customers <add|edit|delete>",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("customers", pflag.ContinueOnError)
			fs.StringVarP(&search, "search", "s", "", "case-insensitive name filter")
			return fs
		},
		Run: func(args []string) error {
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				book := customer.NewBook(nil)
				book.Replace(env.Store.Snapshot().Customers)
				found := book.Search(search)
				if len(found) == 0 {
					c.printf("No saved contacts.\n")
					return nil
				}
				rows := make([][]string, 0, len(found))
				for _, cu := range found {
					rows = append(rows, []string{shortID(cu.ID), cu.Name, cu.Address, cu.Contact})
				}
				c.printf("%s\n", renderTable([]string{"ID", "Name", "Address", "Contact"}, rows))
				return nil
			})
		},
		Subcommands: []*Command{
			c.customerAddCommand(),
			c.customerEditCommand(),
			c.customerDeleteCommand(),
		},
	}
}

func detailFlags(fs *pflag.FlagSet, d *customer.Details) {
	fs.StringVar(&d.Name, "name", "", "contact name")
	fs.StringVar(&d.Address, "address", "", "delivery address")
	fs.StringVar(&d.Contact, "contact", "", "phone or email")
}

func (c *CLI) customerAddCommand() *Command {
	var d customer.Details
	return &Command{
		Name:    "add",
		Summary: "Save a contact (skipped when the name already exists)",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("customers add", pflag.ContinueOnError)
			detailFlags(fs, &d)
			return fs
		},
		Run: func(args []string) error {
			if d.Name == "" {
				return fmt.Errorf("--name is required")
			}
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				saved, added, err := env.Store.SaveCustomer(ctx, d)
				if err != nil {
					return err
				}
				if !added {
					c.printf("%s is already saved (%s).\n", saved.Name, shortID(saved.ID))
					return nil
				}
				c.printf("Saved %s (%s).\n", saved.Name, shortID(saved.ID))
				return nil
			})
		},
	}
}

func (c *CLI) customerEditCommand() *Command {
	var d customer.Details
	return &Command{
		Name:    "edit",
		Summary: "Replace a saved contact's details",
		Usage:   "swiftrun customers edit <id> --name NAME --address ADDR --contact PHONE",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("customers edit", pflag.ContinueOnError)
			detailFlags(fs, &d)
			return fs
		},
		Run: func(args []string) error {
			if err := exactArgs("customers edit", args, 1, "<id> [flags]"); err != nil {
				return err
			}
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				id, err := resolveCustomerID(env.Store.Snapshot().Customers, args[0])
				if err != nil {
					return err
				}
				if _, err := env.Store.EditCustomer(ctx, id, d); err != nil {
					return err
				}
				c.printf("Updated %s.\n", shortID(id))
				return nil
			})
		},
	}
}

func (c *CLI) customerDeleteCommand() *Command {
	return &Command{
		Name:    "delete",
		Summary: "Remove a saved contact",
		Usage:   "swiftrun customers delete <id>",
		Run: func(args []string) error {
			if err := exactArgs("customers delete", args, 1, "<id>"); err != nil {
				return err
			}
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				id, err := resolveCustomerID(env.Store.Snapshot().Customers, args[0])
				if err != nil {
					return err
				}
				if _, err := env.Store.DeleteCustomer(ctx, id); err != nil {
					return err
				}
				c.printf("Deleted %s.\n", shortID(id))
				return nil
			})
		},
	}
}

func resolveCustomerID(items []customer.Customer, arg string) (string, error) {
	var match string
	for _, cu := range items {
		if cu.ID == arg {
			return cu.ID, nil
		}
		if arg != "" && len(cu.ID) >= len(arg) && cu.ID[:len(arg)] == arg {
			if match != "" {
				return "", fmt.Errorf("contact id %q is ambiguous", arg)
			}
			match = cu.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no contact with id %q", arg)
	}
	return match, nil
}
