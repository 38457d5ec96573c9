package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/five82/swiftrun/internal/advisory"
	"github.com/five82/swiftrun/internal/app"
	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/category"
	"github.com/five82/swiftrun/internal/customer"
	"github.com/five82/swiftrun/internal/export"
	"github.com/five82/swiftrun/internal/view"
)

func (c *CLI) addCommand() *Command {
	var (
		p           booking.Payload
		pickup      string
		fromContact string
		saveContact bool
		lat, lon    float64
	)
	return &Command{
		Name:    "add",
		Summary: "Book a delivery onto the run",
		Usage:   "swiftrun add --customer NAME --address ADDR --contact PHONE --so SO [flags]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("add", pflag.ContinueOnError)
			fs.StringVar(&pickup, "pickup", string(category.Sandgate), "pickup depot code or free-text location")
			fs.StringVar(&p.CustomerName, "customer", "", "recipient name")
			fs.StringVar(&p.DeliveryAddress, "address", "", "delivery address")
			fs.StringVar(&p.Contact, "contact", "", "recipient phone or email")
			fs.IntVar(&p.Cartons, "cartons", 1, "number of cartons")
			fs.StringVar(&p.SalesOrder, "so", "", "sales order number")
			fs.StringVar(&p.PurchaseOrder, "po", "", "purchase order number")
			fs.StringVar(&p.DeliveryInstructions, "instructions", "", "delivery instructions")
			fs.IntVar(&p.Sequence, "sequence", 0, "run position (default: end of the run)")
			fs.Float64Var(&lat, "lat", 0, "pre-resolved latitude")
			fs.Float64Var(&lon, "lon", 0, "pre-resolved longitude")
			fs.StringVar(&fromContact, "from-contact", "", "fill recipient fields from a saved contact")
			fs.BoolVar(&saveContact, "save-contact", false, "save the recipient to the address book")
			return fs
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				if fromContact != "" {
					book := customer.NewBook(nil)
					book.Replace(env.Store.Snapshot().Customers)
					contact, ok := book.FindByName(fromContact)
					if !ok {
						return fmt.Errorf("no saved contact named %q", fromContact)
					}
					if p.CustomerName == "" {
						p.CustomerName = contact.Name
					}
					if p.DeliveryAddress == "" {
						p.DeliveryAddress = contact.Address
					}
					if p.Contact == "" {
						p.Contact = contact.Contact
					}
				}
				p.PickupLocation = pickupLocation(pickup)
				if lat != 0 || lon != 0 {
					p.Latitude, p.Longitude = &lat, &lon
				}
				added, err := env.Store.AddBooking(ctx, p, saveContact)
				var invalid *booking.ValidationError
				if errors.As(err, &invalid) {
					return fmt.Errorf("missing or invalid: %s", strings.Join(invalid.Fields, ", "))
				}
				if err != nil {
					return err
				}
				c.printf("Booked #%d %s (%s)\n", added.Sequence, added.CustomerName, shortID(added.ID))
				return nil
			})
		},
	}
}

// pickupLocation expands a depot code to its full address; anything else
// is kept as a free-text location.
func pickupLocation(value string) string {
	if code, ok := category.ParseFilter(value); ok && code != "" && code != category.Other {
		if preset, ok := category.Lookup(code); ok {
			return preset.Address
		}
	}
	return strings.TrimSpace(value)
}

func filterFlags(fs *pflag.FlagSet, pickup, status *string) {
	fs.StringVar(pickup, "pickup", "", "only this pickup depot (SG, WB, RF, Other)")
	fs.StringVar(status, "status", "", "only this status (pending, on-board, delivered)")
}

func parseFilter(pickup, status string) (view.Filter, error) {
	var f view.Filter
	if pickup != "" {
		code, ok := category.ParseFilter(pickup)
		if !ok {
			return f, fmt.Errorf("unknown pickup filter %q", pickup)
		}
		f.Pickup = code
	}
	if status != "" {
		st, ok := booking.ParseStatus(status)
		if !ok {
			return f, fmt.Errorf("unknown status %q", status)
		}
		f.Status = st
	}
	return f, nil
}

func (c *CLI) listCommand() *Command {
	var pickup, status string
	var history bool
	return &Command{
		Name:    "list",
		Summary: "Show the active run or the delivered history",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
			filterFlags(fs, &pickup, &status)
			fs.BoolVar(&history, "history", false, "list delivered bookings instead of the active run")
			return fs
		},
		Run: func(args []string) error {
			f, err := parseFilter(pickup, status)
			if err != nil {
				return err
			}
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				snap := env.Store.Snapshot()
				p := view.Project(snap.Bookings, f)
				items := p.Active
				if history {
					items = p.History
				}
				stats := view.ComputeStats(snap.Bookings)
				c.printf("%d deliveries, %d delivered, %d remaining, %d cartons\n",
					stats.TotalDeliveries, stats.DeliveredCount, stats.Remaining(), stats.TotalCartons)
				if len(items) == 0 {
					c.printf("No bookings.\n")
					return nil
				}
				headers, rows := bookingRows(items, history)
				c.printf("%s\n", renderTable(headers, rows))
				return nil
			})
		},
	}
}

func (c *CLI) moveCommand() *Command {
	return &Command{
		Name:    "move",
		Summary: "Drop one booking onto another's position in the run",
		Usage:   "swiftrun move <booking-id> <target-id>",
		Run: func(args []string) error {
			if err := exactArgs("move", args, 2, "<booking-id> <target-id>"); err != nil {
				return err
			}
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				items := env.Store.Bookings()
				dragged, err := resolveID(items, args[0])
				if err != nil {
					return err
				}
				target, err := resolveID(items, args[1])
				if err != nil {
					return err
				}
				ok, err := env.Store.MoveBooking(ctx, dragged, target)
				if err != nil {
					return err
				}
				if !ok {
					c.printf("Nothing moved.\n")
					return nil
				}
				c.printf("Moved %s.\n", shortID(dragged))
				return nil
			})
		},
	}
}

func (c *CLI) toggleCommand() *Command {
	return &Command{
		Name:    "toggle",
		Summary: "Advance a booking to its next status",
		Usage:   "swiftrun toggle <booking-id>",
		Run: func(args []string) error {
			if err := exactArgs("toggle", args, 1, "<booking-id>"); err != nil {
				return err
			}
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				id, err := resolveID(env.Store.Bookings(), args[0])
				if err != nil {
					return err
				}
				b, ok, err := env.Store.ToggleStatus(ctx, id)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no booking with id %q", args[0])
				}
				c.printf("%s is now %s.\n", b.CustomerName, b.Status)
				return nil
			})
		},
	}
}

func (c *CLI) deliverCommand() *Command {
	return &Command{
		Name:    "deliver",
		Summary: "Mark one or more bookings delivered",
		Usage:   "swiftrun deliver <booking-id>...",
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("usage: swiftrun deliver <booking-id>...")
			}
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				items := env.Store.Bookings()
				ids := make([]string, 0, len(args))
				for _, arg := range args {
					id, err := resolveID(items, arg)
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}
				n, err := env.Store.BulkMarkDelivered(ctx, ids)
				if err != nil {
					return err
				}
				c.printf("Delivered %d booking(s).\n", n)
				return nil
			})
		},
	}
}

func (c *CLI) deleteCommand() *Command {
	return &Command{
		Name:    "delete",
		Summary: "Remove a booking",
		Usage:   "swiftrun delete <booking-id>",
		Run: func(args []string) error {
			if err := exactArgs("delete", args, 1, "<booking-id>"); err != nil {
				return err
			}
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				id, err := resolveID(env.Store.Bookings(), args[0])
				if err != nil {
					return err
				}
				if _, err := env.Store.DeleteBooking(ctx, id); err != nil {
					return err
				}
				c.printf("Deleted %s.\n", shortID(id))
				return nil
			})
		},
	}
}

func (c *CLI) exportCommand() *Command {
	var out, pickup, status string
	return &Command{
		Name:    "export",
		Summary: "Write the delivery history to an XLSX workbook",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
			fs.StringVarP(&out, "out", "o", "", "output file (default SwiftRun_History_<date>.xlsx in the current directory)")
			filterFlags(fs, &pickup, &status)
			return fs
		},
		Run: func(args []string) error {
			f, err := parseFilter(pickup, status)
			if err != nil {
				return err
			}
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				rows := view.ExportRows(env.Store.Bookings(), f)
				if len(rows) == 0 {
					return export.ErrNoData
				}
				path := out
				if path == "" {
					path = filepath.Join(workingDir(), export.DefaultFileName(c.Now()))
				}
				file, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create export: %w", err)
				}
				if err := export.WriteWorkbook(file, rows); err != nil {
					_ = file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return fmt.Errorf("close export: %w", err)
				}
				c.printf("Exported %d row(s) to %s\n", len(rows), path)
				return nil
			})
		},
	}
}

func (c *CLI) labelsCommand() *Command {
	return &Command{
		Name:    "labels",
		Summary: "Print carton labels for a booking",
		Usage:   "swiftrun labels <booking-id>",
		Run: func(args []string) error {
			if err := exactArgs("labels", args, 1, "<booking-id>"); err != nil {
				return err
			}
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				items := env.Store.Bookings()
				id, err := resolveID(items, args[0])
				if err != nil {
					return err
				}
				for _, b := range items {
					if b.ID == id {
						c.printf("%s\n", export.RenderLabels(b, c.Now()))
					}
				}
				return nil
			})
		},
	}
}

func (c *CLI) adviseCommand() *Command {
	return &Command{
		Name:    "advise",
		Summary: "Summarise the active run by pickup depot",
		Run: func(args []string) error {
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				active := view.Project(env.Store.Bookings(), view.Filter{}).Active
				res := advisory.Safe(ctx, advisory.Summary{}, active)
				c.printf("%s\n", res.Text)
				for _, link := range res.Links {
					c.printf("  %s: %s\n", link.Title, link.URI)
				}
				return nil
			})
		},
	}
}
