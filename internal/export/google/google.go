// Package google writes export tables to a Google spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finview/internal/export"
	"finview/internal/log"
)

// Ensure interface conformance
var _ export.Writer = (*Client)(nil)

// Options selects the spreadsheet and how to authenticate. A service account
// (JSON first, then file) wins over a user OAuth token.
type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	// OAuth user credentials, as written by finview-oauth-init.
	OAuthClientJSON []byte
	OAuthTokenFile  string
	// ClientOptions are appended after the credentials, e.g. an endpoint in tests.
	ClientOptions []goption.ClientOption
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

// New creates a Sheets client authenticated with a service account or a saved user token.
func New(ctx context.Context, opts Options, logger *log.Logger) (*Client, error) {
	id := strings.TrimSpace(opts.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var clientOpts []goption.ClientOption
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		clientOpts = append(clientOpts, goption.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	case strings.TrimSpace(opts.CredentialsFile) != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(data))
	case len(opts.OAuthClientJSON) > 0 && opts.OAuthTokenFile != "":
		ts, err := oauthTokenSource(ctx, opts.OAuthClientJSON, opts.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, goption.WithTokenSource(ts))
	case len(opts.ClientOptions) == 0:
		return nil, errors.New("missing service account credentials")
	}
	clientOpts = append(clientOpts, goption.WithScopes(gsheet.SpreadsheetsScope))
	clientOpts = append(clientOpts, opts.ClientOptions...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, id, logger), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, logger: logger.WithComponent(log.ComponentExport)}
}

// WriteTable replaces the sheet named t.Name with the header and rows, creating the sheet when missing.
func (c *Client) WriteTable(ctx context.Context, t export.Table) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if t.Name == "" {
		return errors.New("table name is required")
	}

	if err := c.ensureSheet(ctx, t.Name); err != nil {
		return err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quote(t.Name), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", t.Name, err)
	}

	values := make([][]interface{}, 0, len(t.Rows)+1)
	values = append(values, toInterfaces(t.Header))
	for _, r := range t.Rows {
		values = append(values, toInterfaces(r))
	}

	rng := quote(t.Name) + "!A1"
	vr := &gsheet.ValueRange{Range: rng, Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet %s: %w", t.Name, err)
	}

	c.logger.DebugContext(ctx, "Wrote sheet", "sheet", t.Name, log.FieldCount, len(t.Rows))
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, name string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}
	c.logger.InfoContext(ctx, "Created sheet", "sheet", name)
	return nil
}

// quote wraps a sheet name for A1 notation.
func quote(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
