package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jacentio/chips-catalog/catalog"
	"github.com/jacentio/chips-catalog/internal/config"
	"github.com/jacentio/chips-catalog/internal/fixtures"
	"github.com/jacentio/chips-catalog/internal/memstore"
)

const newItemJSON = `{"name":"Cheesy Chuck","category_label":"Cheese","kind":"KARTOFFEL","stock_quantity":12,"price":1.99,"tags":["PAPRIKA"]}`

func newTestApp(t *testing.T, stdin string) (*app, *memstore.Store, *bytes.Buffer) {
	t.Helper()

	repo := memstore.New()
	for _, item := range fixtures.Items() {
		_, err := repo.Insert(context.Background(), item)
		require.NoError(t, err)
	}

	out := &bytes.Buffer{}
	return &app{
		read:  catalog.NewReadService(repo, nil),
		write: catalog.NewWriteService(repo, nil, nil, nil),
		in:    strings.NewReader(stdin),
		out:   out,
	}, repo, out
}

func isUsageError(err error) bool {
	var usage usageError
	return errors.As(err, &usage)
}

func TestGet(t *testing.T) {
	a, _, out := newTestApp(t, "")

	require.NoError(t, a.run(context.Background(), []string{"get", fixtures.AlphaID}))

	var view itemView
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.Equal(t, fixtures.AlphaID, view.ID)
	assert.Equal(t, "Alpha", view.Name)
	assert.Equal(t, `"0"`, view.Version)
}

func TestGet_Errors(t *testing.T) {
	a, _, _ := newTestApp(t, "")

	err := a.run(context.Background(), []string{"get", "000000000000000000000099"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no item with id")

	err = a.run(context.Background(), []string{"get", "malformed"})
	require.Error(t, err)
	assert.False(t, isUsageError(err))

	assert.True(t, isUsageError(a.run(context.Background(), []string{"get"})))
}

func TestFind(t *testing.T) {
	a, _, out := newTestApp(t, "")

	require.NoError(t, a.run(context.Background(), []string{"find", "kind=KARTOFFEL", "available=false"}))

	var views []itemView
	require.NoError(t, json.Unmarshal(out.Bytes(), &views))
	names := make([]string, 0, len(views))
	for _, v := range views {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"Epsilon", "Phi"}, names)
}

func TestFind_EmptyResultPrintsArray(t *testing.T) {
	a, _, out := newTestApp(t, "")

	require.NoError(t, a.run(context.Background(), []string{"find", "unknown=1"}))
	assert.Equal(t, "[]\n", out.String())
}

func TestParseFilter(t *testing.T) {
	filter, err := parseFilter([]string{"name=Al", "price=4.44", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, catalog.Filter{"name": "Al", "price": "4.44", "note": "a=b"}, filter)

	_, err = parseFilter([]string{"kind"})
	assert.True(t, isUsageError(err))

	_, err = parseFilter([]string{"=x"})
	assert.True(t, isUsageError(err))
}

func TestCreate(t *testing.T) {
	a, repo, out := newTestApp(t, newItemJSON)

	require.NoError(t, a.run(context.Background(), []string{"create"}))

	id := strings.TrimSpace(out.String())
	assert.True(t, catalog.ValidID(id), "expected generated id, got %q", id)
	assert.Equal(t, 7, repo.Len())

	item, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Cheesy Chuck", item.Name)
	assert.Equal(t, []string{"PAPRIKA"}, item.Tags)
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		expected string
	}{
		{"name exists", `{"name":"Alpha","category_label":"A","stock_quantity":1,"price":1}`, catalog.NameExists{Name: "Alpha"}.Message()},
		{"constraint violations", `{"name":"Neu","category_label":"N","stock_quantity":-1,"price":1}`, catalog.MsgStockQuantity},
		{"not an object", `null`, "expected a JSON object"},
		{"malformed json", `{`, "decode item from stdin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, repo, _ := newTestApp(t, tt.stdin)

			err := a.run(context.Background(), []string{"create"})
			require.Error(t, err)
			assert.Contains(t, message(err), tt.expected)
			assert.Equal(t, 6, repo.Len())
		})
	}
}

func TestUpdate(t *testing.T) {
	a, repo, out := newTestApp(t, `{"name":"Alpha","category_label":"Neu","stock_quantity":3,"price":9.5}`)

	require.NoError(t, a.run(context.Background(), []string{"update", "-version", `"0"`, fixtures.AlphaID}))
	assert.Equal(t, "\"1\"\n", out.String())

	item, err := repo.FindByID(context.Background(), fixtures.AlphaID)
	require.NoError(t, err)
	assert.Equal(t, "Neu", item.CategoryLabel)
	assert.Nil(t, item.Available)
}

func TestUpdate_Errors(t *testing.T) {
	body := `{"name":"Neue Chips","category_label":"A","stock_quantity":1,"price":1}`

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"invalid token", []string{"update", "-version", "0", fixtures.AlphaID}, catalog.VersionInvalid{Token: "0"}.Message()},
		{"missing token", []string{"update", fixtures.AlphaID}, catalog.VersionInvalid{}.Message()},
		{"unknown id", []string{"update", "-version", `"0"`, "000000000000000000000099"}, catalog.RecordNotExists{ID: "000000000000000000000099"}.Message()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, out := newTestApp(t, body)

			err := a.run(context.Background(), tt.args)
			require.Error(t, err)
			assert.Equal(t, tt.expected, message(err))
			assert.Empty(t, out.String())
		})
	}
}

func TestUpdate_Usage(t *testing.T) {
	a, _, _ := newTestApp(t, "{}")

	assert.True(t, isUsageError(a.run(context.Background(), []string{"update", "-version", `"0"`})))
	assert.True(t, isUsageError(a.run(context.Background(), []string{"update", "-bogus", fixtures.AlphaID})))
}

func TestDelete(t *testing.T) {
	a, repo, out := newTestApp(t, "")

	require.NoError(t, a.run(context.Background(), []string{"delete", fixtures.BetaID}))
	assert.Equal(t, "deleted "+fixtures.BetaID+"\n", out.String())
	assert.Equal(t, 5, repo.Len())

	err := a.run(context.Background(), []string{"delete", fixtures.BetaID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no item with id")
}

func TestRun_Usage(t *testing.T) {
	a, _, out := newTestApp(t, "")

	assert.True(t, isUsageError(a.run(context.Background(), nil)))
	assert.True(t, isUsageError(a.run(context.Background(), []string{"purge"})))
	assert.True(t, isUsageError(a.run(context.Background(), []string{"create", "extra"})))

	require.NoError(t, a.run(context.Background(), []string{"help"}))
	assert.Equal(t, usageText, out.String())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 2, exitCode(usagef("missing command")))
	assert.Equal(t, 1, exitCode(catalog.NameExists{Name: "Alpha"}))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "boom", message(errors.New("boom")))
	assert.Equal(t, catalog.MsgPrice, message(catalog.ConstraintViolations{Messages: []string{catalog.MsgPrice}}))
}

func TestNewNotifier(t *testing.T) {
	cfg := config.Config{NotifyTransport: config.TransportLog}

	notifier, closeFn, err := newNotifier(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, notifier.Send(context.Background(), "subject", "body"))
	assert.NoError(t, closeFn())

	cfg.NotifyTransport = "smtp"
	_, _, err = newNotifier(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
