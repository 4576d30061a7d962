// Package app is the terminal front end: a bubbletea program that walks a
// menu tree and calls into the record store, the ingestion adapter, the
// reconciliation engine and the exporters.
package app

import (
	"fmt"

	"github.com/agirodo/cadastro/internal/audit"
	"github.com/agirodo/cadastro/internal/config"
	"github.com/agirodo/cadastro/internal/export"
	"github.com/agirodo/cadastro/internal/ingest"
	"github.com/agirodo/cadastro/internal/record"
	"github.com/agirodo/cadastro/internal/reconcile"
	tea "github.com/charmbracelet/bubbletea"
)

// Deps is everything the terminal session operates on.
type Deps struct {
	Records   *record.Store
	Engine    *reconcile.Engine
	Adapter   *ingest.Adapter
	Exporter  *export.Writer
	Publisher *export.Publisher
	Audit     *audit.Logger
	Config    *config.Config
}

// Run starts the interactive session and blocks until the operator quits.
func Run(deps Deps) error {
	act := &actions{
		records:   deps.Records,
		engine:    deps.Engine,
		adapter:   deps.Adapter,
		exporter:  deps.Exporter,
		publisher: deps.Publisher,
		aud:       deps.Audit,
		cfg:       deps.Config,
	}

	m := newModel(act)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Confirmation hooks run on an action goroutine: they push the
	// preview into the update loop and block until the operator answers.
	confirm := func(preview string) bool {
		p.Send(previewMsg(preview))
		return <-m.answers
	}
	deps.Adapter.SetConfirm(confirm)
	deps.Exporter.SetConfirm(confirm)
	deps.Publisher.SetConfirm(confirm)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal session: %w", err)
	}
	return nil
}
