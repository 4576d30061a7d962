// Package ingest pulls JSON documents from the web or local files into the
// raw-import queue, where they wait as NEW until an operator stages them.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agirodo/cadastro/internal/audit"
	"github.com/agirodo/cadastro/internal/fault"
	"github.com/agirodo/cadastro/internal/logging"
	"github.com/agirodo/cadastro/internal/store"
)

// ConfirmFunc shows the operator a pretty-printed preview of a fetched
// document and reports whether it should be queued.
type ConfirmFunc func(preview string) bool

// httpCauses maps the statuses the adapter explains to the operator.
// Anything else non-2xx is logged and the body is still attempted.
var httpCauses = map[int]string{
	http.StatusMovedPermanently:    "resource moved permanently",
	http.StatusFound:               "resource temporarily redirected",
	http.StatusBadRequest:          "malformed request",
	http.StatusUnauthorized:        "authentication required",
	http.StatusForbidden:           "access denied",
	http.StatusNotFound:            "resource not found",
	http.StatusRequestTimeout:      "server timed out waiting for the request",
	http.StatusTooManyRequests:     "rate limit exceeded",
	http.StatusInternalServerError: "server error",
	http.StatusBadGateway:          "bad gateway",
	http.StatusServiceUnavailable:  "service unavailable",
	http.StatusGatewayTimeout:      "gateway timeout",
}

// Adapter fetches documents and appends them to raw_imports.
type Adapter struct {
	db      store.DB
	aud     *audit.Logger
	client  *http.Client
	confirm ConfirmFunc
}

func New(db store.DB, aud *audit.Logger, client *http.Client, confirm ConfirmFunc) *Adapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &Adapter{db: db, aud: aud, client: client, confirm: confirm}
}

// SetConfirm replaces the confirmation hook. The terminal front end wires
// its preview screen in here after the program is constructed.
func (a *Adapter) SetConfirm(confirm ConfirmFunc) {
	a.confirm = confirm
}

/// NormalizeURL prepends https:// when the operator typed a bare host.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "https://" + raw
	}
	return raw
}

// FromURL fetches a JSON document, previews it to the operator and, once
// confirmed, queues it as a NEW raw import. It returns the new import id.
// A declined preview queues nothing and returns fault.ErrCancelled.
func (a *Adapter) FromURL(ctx context.Context, rawURL string) (int, error) {
	ctx, log := logging.NewOperation(ctx, "ingest.from_url")
	url := NormalizeURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fault.Wrap(fault.KindTransport, err, "invalid url %q", url)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return 0, fault.Wrap(fault.KindConnectivity, err, "fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if cause, ok := httpCauses[resp.StatusCode]; ok {
			return 0, fault.New(fault.KindTransport,
				"fetch %s: %s (HTTP %d)", url, cause, resp.StatusCode)
		}
		log.Warn("unexpected status, reading body anyway",
			"url", url, "status", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fault.Wrap(fault.KindConnectivity, err, "read response from %s", url)
	}
	return a.queue(ctx, body, url)
}

// FromFile queues a local JSON file the same way FromURL queues a fetched
// document.
func (a *Adapter) FromFile(ctx context.Context, path string) (int, error) {
	ctx, _ = logging.NewOperation(ctx, "ingest.from_file")

	body, err := os.ReadFile(path)
	if err != nil {
		return 0, fault.Wrap(fault.KindStructural, err, "read %s", path)
	}
	return a.queue(ctx, body, path)
}

// queue validates, previews and inserts one document. Servers lie about
// Content-Type often enough that the body is always parsed as JSON.
func (a *Adapter) queue(ctx context.Context, body []byte, source string) (int, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return 0, fault.Wrap(fault.KindStructural, err, "%s is not valid JSON", source)
	}

	if a.confirm != nil {
		pretty, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			pretty = body
		}
		if !a.confirm(string(pretty)) {
			a.aud.Logf(ctx, audit.LevelInfo, "import from %s cancelled by operator", source)
			return 0, fault.ErrCancelled
		}
	}

	compact := new(bytes.Buffer)
	if err := json.Compact(compact, body); err != nil {
		return 0, fault.Wrap(fault.KindStructural, err, "compact document from %s", source)
	}

	var id int
	err := a.db.QueryRow(ctx,
		`INSERT INTO raw_imports (payload) VALUES ($1) RETURNING id`,
		compact.Bytes()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("queue import: %w", err)
	}

	a.aud.Logf(ctx, audit.LevelInfo, "import %d queued from %s", id, source)
	return id, nil
}

// ListLocalJSON returns the *.json files directly under dir, sorted by name,
// for the operator's file picker.
func ListLocalJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
