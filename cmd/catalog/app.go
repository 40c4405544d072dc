package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/jacentio/chips-catalog/catalog"
)

const usageText = `usage: catalog <command> [arguments]

commands:
  get <id>                       print an item and its version token
  find [key=value ...]           print the items matching a filter
  create                         create an item from JSON on stdin
  update -version <token> <id>   replace an item with JSON on stdin
  delete <id>                    delete an item
`

type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// itemView is the JSON shape printed for an item.
type itemView struct {
	ID            string   `json:"id"`
	Version       string   `json:"version"`
	Name          string   `json:"name"`
	CategoryLabel string   `json:"category_label"`
	Kind          string   `json:"kind,omitempty"`
	StockQuantity float64  `json:"stock_quantity"`
	Price         float64  `json:"price"`
	DiscountRate  *float64 `json:"discount_rate,omitempty"`
	Available     *bool    `json:"available,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
}

func viewOf(item catalog.Item) itemView {
	return itemView{
		ID:            item.ID,
		Version:       catalog.VersionToken(item.Version),
		Name:          item.Name,
		CategoryLabel: item.CategoryLabel,
		Kind:          string(item.Kind),
		StockQuantity: item.StockQuantity,
		Price:         item.Price,
		DiscountRate:  item.DiscountRate,
		Available:     item.Available,
		Tags:          item.Tags,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

type app struct {
	read  *catalog.ReadService
	write *catalog.WriteService
	in    io.Reader
	out   io.Writer
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usagef("missing command")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "get":
		return a.get(ctx, rest)
	case "find":
		return a.find(ctx, rest)
	case "create":
		return a.create(ctx, rest)
	case "update":
		return a.update(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	case "help", "-h", "--help":
		_, err := fmt.Fprint(a.out, usageText)
		return err
	}
	return usagef("unknown command %q", cmd)
}

func (a *app) get(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usagef("get takes exactly one id")
	}

	item, err := a.read.FindByID(ctx, args[0])
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("no item with id %s", args[0])
	}
	if err != nil {
		return err
	}
	return a.print(viewOf(*item))
}

func (a *app) find(ctx context.Context, args []string) error {
	filter, err := parseFilter(args)
	if err != nil {
		return err
	}

	items, err := a.read.Find(ctx, filter)
	if err != nil {
		return err
	}
	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, viewOf(item))
	}
	return a.print(views)
}

func (a *app) create(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return usagef("create reads the item from stdin and takes no arguments")
	}

	c, err := a.readCandidate()
	if err != nil {
		return err
	}
	id, err := a.write.Create(ctx, c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, id)
	return err
}

func (a *app) update(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	token := fs.String("version", "", `Version token of the item, e.g. "0" with quotes`)
	if err := fs.Parse(args); err != nil {
		return usagef("update: %v", err)
	}
	if fs.NArg() != 1 {
		return usagef("update takes exactly one id")
	}

	c, err := a.readCandidate()
	if err != nil {
		return err
	}
	version, err := a.write.Update(ctx, fs.Arg(0), c, *token)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, catalog.VersionToken(version))
	return err
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usagef("delete takes exactly one id")
	}

	deleted, err := a.write.Delete(ctx, args[0])
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("no item with id %s", args[0])
	}
	_, err = fmt.Fprintln(a.out, "deleted", args[0])
	return err
}

func (a *app) readCandidate() (catalog.Candidate, error) {
	var c catalog.Candidate
	if err := json.NewDecoder(a.in).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode item from stdin: %w", err)
	}
	if c == nil {
		return nil, errors.New("decode item from stdin: expected a JSON object")
	}
	return c, nil
}

func (a *app) print(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}

// parseFilter turns key=value arguments into a read filter. Values stay
// strings; the read service coerces them per field.
func parseFilter(args []string) (catalog.Filter, error) {
	filter := catalog.Filter{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, usagef("filter %q is not key=value", arg)
		}
		filter[key] = value
	}
	return filter, nil
}
