package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/storefront/app"
	"github.com/jcmexdev/storefront/internal/storefront/catalog"
	"github.com/jcmexdev/storefront/internal/storefront/checkout"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/journal"
	journalsqlite "github.com/jcmexdev/storefront/internal/storefront/journal/sqlite"
	"github.com/jcmexdev/storefront/internal/storefront/orders"
)

const lowStockThreshold = 5

type cli struct {
	app *app.App
	out io.Writer
}

func (c *cli) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return c.login(ctx, args)
	case "register":
		return c.register(ctx, args)
	case "logout":
		return c.app.Logout(ctx)
	case "whoami":
		return c.whoami()
	case "open":
		return c.open(ctx, args)
	case "products":
		return c.products(ctx)
	case "cart":
		return c.cart(ctx, args)
	case "checkout":
		return c.checkout(ctx)
	case "orders":
		return c.orders(ctx)
	case "receipt":
		return c.receipt(ctx, args)
	case "refund":
		return c.refund(ctx, args)
	case "inventory":
		return c.inventory(ctx, args)
	case "all-orders":
		return c.allOrders(ctx)
	case "journal":
		return c.journal(ctx, args)
	case "help":
		return errUsage
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	user := fs.String("u", "", "username")
	pass := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.app.SignIn(ctx, *user, *pass); err != nil {
		return err
	}
	return c.whoami()
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	user := fs.String("u", "", "username")
	pass := fs.String("p", "", "password")
	role := fs.String("role", string(entity.RoleClient), "CLIENT or OWNER")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.app.SignUp(ctx, *user, *pass, entity.Role(*role)); err != nil {
		return err
	}
	return c.whoami()
}

func (c *cli) whoami() error {
	s := c.app.Sessions.Current()
	if !s.Authenticated() {
		fmt.Fprintln(c.out, "not signed in")
		return nil
	}
	fmt.Fprintf(c.out, "user %s (%s) on %s\n", s.User.ID, s.User.Role, c.app.Router.Current())
	return nil
}

func (c *cli) open(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	landed, err := c.app.Open(ctx, entity.Route(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, landed)
	return nil
}

// enter navigates to route and fails when the guard sends the user elsewhere.
func (c *cli) enter(ctx context.Context, route entity.Route) error {
	landed, err := c.app.Open(ctx, route)
	if err != nil {
		return err
	}
	if landed != route {
		return fmt.Errorf("%s is not available, redirected to %s", route, landed)
	}
	return nil
}

func (c *cli) products(ctx context.Context) error {
	if err := c.enter(ctx, entity.RouteProducts); err != nil {
		return err
	}
	list, err := c.app.Catalog.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK")
	for _, p := range list {
		stock := strconv.Itoa(p.StockQuantity)
		if !p.InStock() {
			stock = "out of stock"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.UnitPrice.StringFixed(2), stock)
	}
	return w.Flush()
}

func (c *cli) cart(ctx context.Context, args []string) error {
	if err := c.enter(ctx, entity.RouteCart); err != nil {
		return err
	}
	if len(args) == 0 {
		return c.showCart()
	}

	sub, rest := args[0], args[1:]
	if sub == "show" {
		return c.showCart()
	}
	if sub == "clear" {
		if err := c.app.Cart.Clear(ctx); err != nil {
			return err
		}
		return c.showCart()
	}

	fs := flag.NewFlagSet("cart "+sub, flag.ContinueOnError)
	qty := fs.Int("qty", 1, "quantity to add")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}

	switch sub {
	case "add":
		p, err := c.app.Catalog.Find(ctx, id)
		if err != nil {
			return err
		}
		if !p.InStock() {
			return fmt.Errorf("%s is out of stock", p.Name)
		}
		err = c.app.Cart.Add(ctx, p.ID, p.Name, p.UnitPrice, *qty)
	case "inc":
		err = c.app.Cart.Increase(ctx, id)
	case "dec":
		err = c.app.Cart.Decrease(ctx, id)
	case "remove":
		err = c.app.Cart.Remove(ctx, id)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	return c.showCart()
}

func (c *cli) showCart() error {
	lines := c.app.Cart.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(c.out, "cart is empty")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tQTY\tSUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", l.ProductID, l.Name, l.UnitPrice.StringFixed(2), l.Quantity, l.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(w, "\t\t\tTOTAL\t%s\n", c.app.Cart.Total().StringFixed(2))
	return w.Flush()
}

func (c *cli) checkout(ctx context.Context) error {
	if err := c.enter(ctx, entity.RouteCheckout); err != nil {
		return err
	}
	res, err := c.app.Checkout.Submit(ctx)
	if res != nil {
		fmt.Fprintf(c.out, "order %d paid, total %s\n", res.OrderID, res.Total.StringFixed(2))
	}
	var payErr *checkout.PaymentError
	if errors.As(err, &payErr) {
		fmt.Fprintln(c.out, "your cart was kept, you can try again")
	}
	return err
}

func (c *cli) orders(ctx context.Context) error {
	if err := c.enter(ctx, entity.RouteOrders); err != nil {
		return err
	}
	list, err := c.app.Orders.ListMine(ctx, c.app.Sessions.User().ID)
	if err != nil {
		return err
	}
	return printOrders(c.out, list)
}

func (c *cli) receipt(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := c.enter(ctx, entity.ReceiptRoute(id)); err != nil {
		return err
	}
	o, err := c.app.Orders.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "order %d  %s  %s\n", o.ID, o.Status, o.CreatedAt.Format("2006-01-02 15:04"))
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tPRICE\tQTY\tTOTAL")
	for _, l := range o.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", l.ProductName, l.UnitPrice.StringFixed(2), l.Qty, l.LineTotal.StringFixed(2))
	}
	fmt.Fprintf(w, "%d items\t\t\t%s\n", orders.TotalItems(*o), o.Total.StringFixed(2))
	if err := w.Flush(); err != nil {
		return err
	}
	if orders.Refundable(*o) {
		fmt.Fprintf(c.out, "refundable: storefront refund %d\n", o.ID)
	}
	return nil
}

func (c *cli) refund(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := c.enter(ctx, entity.ReceiptRoute(id)); err != nil {
		return err
	}
	if err := c.app.Orders.Refund(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "order %d refunded\n", id)
	_, err = c.app.Open(ctx, entity.RouteOrders)
	return err
}

func (c *cli) inventory(ctx context.Context, args []string) error {
	if err := c.enter(ctx, entity.RouteInventory); err != nil {
		return err
	}
	if len(args) == 0 || args[0] == "list" {
		return c.inventoryList(ctx)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "add":
		fs := flag.NewFlagSet("inventory add", flag.ContinueOnError)
		name := fs.String("name", "", "product name")
		price := fs.String("price", "", "unit price")
		stock := fs.Int("stock", 0, "initial stock")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		p, err := decimal.NewFromString(*price)
		if err != nil {
			return fmt.Errorf("%w: %s", catalog.ErrInvalidPrice, *price)
		}
		if err := c.app.Catalog.AddProduct(ctx, *name, p, *stock); err != nil {
			return err
		}
	case "price":
		if len(rest) != 2 {
			return errUsage
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		p, err := decimal.NewFromString(rest[1])
		if err != nil {
			return fmt.Errorf("%w: %s", catalog.ErrInvalidPrice, rest[1])
		}
		if err := c.app.Catalog.UpdatePrice(ctx, id, p); err != nil {
			return err
		}
	case "refill":
		if len(rest) != 2 {
			return errUsage
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("%w: %s", catalog.ErrInvalidQuantity, rest[1])
		}
		if err := c.app.Catalog.RefillStock(ctx, id, qty); err != nil {
			return err
		}
	default:
		return errUsage
	}
	return c.inventoryList(ctx)
}

func (c *cli) inventoryList(ctx context.Context) error {
	list, err := c.app.Catalog.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK")
	for _, p := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", p.ID, p.Name, p.UnitPrice.StringFixed(2), p.StockQuantity)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if low := catalog.LowStock(list, lowStockThreshold); len(low) > 0 {
		fmt.Fprintf(c.out, "\n%d products below %d units\n", len(low), lowStockThreshold)
	}
	return nil
}

func (c *cli) allOrders(ctx context.Context) error {
	if err := c.enter(ctx, entity.RouteAllOrders); err != nil {
		return err
	}
	list, err := c.app.Orders.ListAll(ctx)
	if err != nil {
		return err
	}
	if err := printOrders(c.out, list); err != nil {
		return err
	}
	m := orders.Summarize(list)
	fmt.Fprintf(c.out, "\nrevenue %s  refunded %s  net %s\n",
		m.TotalRevenue.StringFixed(2), m.RefundedAmount.StringFixed(2), m.NetRevenue.StringFixed(2))
	fmt.Fprintf(c.out, "paid %d  refunded %d  failed %d\n", m.PaidOrders, m.RefundedOrders, m.FailedOrders)
	return nil
}

func (c *cli) journal(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "number of entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var entries []journal.Entry
	switch j := c.app.Journal().(type) {
	case *journalsqlite.Repository:
		var err error
		if entries, err = j.Recent(ctx, *limit); err != nil {
			return err
		}
	case *journal.Memory:
		entries = j.Entries()
	default:
		return errors.New("checkout journal is disabled (STOREFRONT_JOURNAL=false)")
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tATTEMPT\tSTATUS\tORDER\tTOTAL\tERROR")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.RecordedAt.Format("2006-01-02 15:04:05"), e.AttemptID, e.Status, e.OrderID, e.Total, e.Error)
	}
	return w.Flush()
}

func printOrders(out io.Writer, list []entity.Order) error {
	if len(list) == 0 {
		fmt.Fprintln(out, "no orders")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tSTATUS\tTOTAL\tCREATED")
	for _, o := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", o.ID, o.OwnerUserID, o.Status, o.Total.StringFixed(2), o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
