// Package presenter renders snapshots and diffs as console tables.
package presenter

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"

	"github.com/Hattyot/BalanceSnapshotter/internal/domain"
)

var headers = []string{"asset", "account", "balance"}

// MetadataResolver returns token metadata, usually from a cache.
type MetadataResolver interface {
	Resolve(ctx context.Context, token domain.Token) (domain.TokenMetadata, error)
}

// Presenter renders balances using token metadata for symbols and scaling.
type Presenter struct {
	meta     MetadataResolver
	out      io.Writer
	renderer *lipgloss.Renderer
	status   lipgloss.Style
	cell     lipgloss.Style
}

// New creates a presenter writing to out.
func New(meta MetadataResolver, out io.Writer) *Presenter {
	r := lipgloss.NewRenderer(out)
	return &Presenter{
		meta:     meta,
		out:      out,
		renderer: r,
		status:   r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		cell:     r.NewStyle().Padding(0, 1),
	}
}

// Render returns the non-zero balances of a snapshot as a table.
func (p *Presenter) Render(ctx context.Context, snap *domain.Snapshot) (string, error) {
	if snap == nil || snap.Balances == nil {
		return "", errors.New("nothing to render")
	}

	var (
		rows [][]string
		err  error
	)
	snap.Balances.Each(func(token domain.Token, account domain.Account, value *big.Int) bool {
		if value.Sign() == 0 {
			return true
		}

		var meta domain.TokenMetadata
		meta, err = p.meta.Resolve(ctx, token)
		if err != nil {
			return false
		}
		if domain.DisplaysAsZero(value, meta.Decimals) {
			return true
		}

		rows = append(rows, []string{meta.Symbol, accountCell(account), FormatAmount(value, meta.Decimals)})
		return true
	})
	if err != nil {
		return "", errors.Wrap(err, "render snapshot")
	}

	return p.table(rows), nil
}

// RenderDiff returns the rows of a diff as a table with signed amounts.
func (p *Presenter) RenderDiff(_ context.Context, diff domain.Diff) (string, error) {
	rows := make([][]string, 0, len(diff.Rows))
	for _, r := range diff.Rows {
		if domain.DisplaysAsZero(r.Delta, r.Decimals) {
			continue
		}
		rows = append(rows, []string{r.Symbol, accountCell(r.Account), FormatDelta(r.Delta, r.Decimals)})
	}
	return p.table(rows), nil
}

// Status renders a highlighted status line.
func (p *Presenter) Status(text string) string {
	return p.status.Render(text)
}

// PrintSnapshot writes the snapshot header (for named snapshots) and its table.
func (p *Presenter) PrintSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	rendered, err := p.Render(ctx, snap)
	if err != nil {
		return err
	}
	if snap.Name != "" {
		if _, err := fmt.Fprintln(p.out, p.Status(SnapshotHeader(snap))); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(p.out, rendered)
	return err
}

// PrintDiff writes the comparison header and the diff table.
func (p *Presenter) PrintDiff(ctx context.Context, diff domain.Diff) error {
	rendered, err := p.RenderDiff(ctx, diff)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(p.out, p.Status(CompareHeader(diff.Before, diff.After))); err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.out, rendered)
	return err
}

// SnapshotHeader title line of a snapshot table.
func SnapshotHeader(snap *domain.Snapshot) string {
	return fmt.Sprintf("== Balances: %s ==", snap.Name)
}

// CompareHeader title line of a diff table.
func CompareHeader(before, after *domain.Snapshot) string {
	if before == nil || after == nil || before.Name == "" || after.Name == "" {
		return "== Comparing Balances: Latest two snapshots =="
	}
	return fmt.Sprintf("== Comparing Balances: %s and %s ==", before.Name, after.Name)
}

func (p *Presenter) table(rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 2 {
				return p.cell.Align(lipgloss.Right)
			}
			return p.cell
		})
	return t.Render()
}

func accountCell(a domain.Account) string {
	if a.Label != "" {
		return fmt.Sprintf("%s (%s)", a.Address.Hex(), a.Label)
	}
	return a.Address.Hex()
}
