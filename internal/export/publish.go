package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/agirodo/cadastro/internal/audit"
	"github.com/agirodo/cadastro/internal/fault"
)

// DefaultBinURL is the JSONBin.io v3 create-bin endpoint.
const DefaultBinURL = "https://api.jsonbin.io/v3/b"

// Publisher posts export documents to a remote bin store.
type Publisher struct {
	writer  *Writer
	aud     *audit.Logger
	client  *http.Client
	binURL  string
	confirm ConfirmFunc
}

func NewPublisher(writer *Writer, aud *audit.Logger, client *http.Client) *Publisher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Publisher{writer: writer, aud: aud, client: client, binURL: DefaultBinURL}
}

// SetConfirm replaces the confirmation hook used before posting.
func (p *Publisher) SetConfirm(confirm ConfirmFunc) {
	p.confirm = confirm
}

// Publish posts the current snapshot and returns the public URL of the
// created bin. A missing API key aborts before any network or database
// work happens. A declined confirmation posts nothing and returns
// fault.ErrCancelled.
func (p *Publisher) Publish(ctx context.Context, apiKey string) (string, error) {
	if apiKey == "" {
		return "", fault.New(fault.KindConfig,
			"JSONBIN_API_KEY is not set; create a free key at https://jsonbin.io and export it")
	}

	doc, err := p.writer.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	if p.confirm != nil {
		summary := fmt.Sprintf("Publish %d customers and %d orders to jsonbin.io?",
			len(doc.Customers), len(doc.Orders))
		if !p.confirm(summary) {
			p.aud.Log(ctx, audit.LevelInfo, "publish cancelled by operator")
			return "", fault.ErrCancelled
		}
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.binURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Master-Key", apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fault.Wrap(fault.KindConnectivity, err, "publish to %s", p.binURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fault.New(fault.KindTransport,
			"publish rejected: HTTP %d: %s", resp.StatusCode, detail)
	}

	var created struct {
		Metadata struct {
			ID string `json:"id"`
		} `json:"metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fault.Wrap(fault.KindTransport, err, "decode publish response")
	}

	publicURL := "https://jsonbin.io/" + created.Metadata.ID
	p.aud.Logf(ctx, audit.LevelInfo, "data published to %s", publicURL)
	return publicURL, nil
}
