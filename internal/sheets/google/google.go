// Package google reads a kid's ledger from a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"pocketmoney/internal/core"
	"pocketmoney/internal/log"
	"pocketmoney/internal/store"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultLedgerSheet is used when GOOGLE_LEDGER_SHEET_NAME is unset.
const DefaultLedgerSheet = "Ledger"

type valuesFunc func(ctx context.Context, rng string) ([][]interface{}, error)

type Client struct {
	spreadsheetID string
	ledgerSheet   string
	values        valuesFunc
}

var _ store.LedgerReader = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID and service account credentials.
// Optional: GOOGLE_LEDGER_SHEET_NAME (default "Ledger").
func NewFromEnv(ctx context.Context) (*Client, error) {
	return NewClient(ctx, os.Getenv("GOOGLE_SPREADSHEET_ID"), os.Getenv("GOOGLE_LEDGER_SHEET_NAME"))
}

// NewClient creates a read-only client for one spreadsheet using the service
// account credentials found in the environment.
func NewClient(ctx context.Context, spreadsheetID, ledgerSheet string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, ledgerSheet), nil
}

// New wraps an initialized Sheets service.
func New(svc *gsheet.Service, spreadsheetID, ledgerSheet string) *Client {
	c := newClient(spreadsheetID, ledgerSheet, nil)
	c.values = func(ctx context.Context, rng string) ([][]interface{}, error) {
		resp, err := svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		return resp.Values, nil
	}
	return c
}

func newClient(spreadsheetID, ledgerSheet string, values valuesFunc) *Client {
	ledgerSheet = strings.TrimSpace(ledgerSheet)
	if ledgerSheet == "" {
		ledgerSheet = DefaultLedgerSheet
	}
	return &Client{spreadsheetID: spreadsheetID, ledgerSheet: ledgerSheet, values: values}
}

// newSheetsService initializes a read-only Sheets Service. A user token from
// GOOGLE_OAUTH_TOKEN_FILE wins; otherwise Service Account credentials come
// from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	ts, err := oauthTokenSource(ctx)
	if err != nil {
		return nil, err
	}
	if ts != nil {
		slog.InfoContext(ctx, "Using OAuth user token")
		return gsheet.NewService(ctx, goption.WithTokenSource(ts))
	}

	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// FetchLedger implements store.LedgerReader. Records outside r are dropped
// unless their date is malformed.
func (c *Client) FetchLedger(ctx context.Context, kidID string, r *core.DateRange) ([]core.LedgerRecord, error) {
	if c.values == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:G", c.ledgerSheet)
	values, err := c.values(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	records, err := parseLedgerRows(values, kidID)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.Unreadable != nil {
			slog.WarnContext(ctx, "Unreadable ledger row", "sheet", c.ledgerSheet, log.FieldError, rec.Unreadable)
		}
	}
	if r == nil {
		return records, nil
	}

	out := records[:0]
	for _, rec := range records {
		if d, err := core.ParseDate(rec.EntryDate); err == nil && !r.Contains(d) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
