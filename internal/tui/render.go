// Package tui renders pickers, drafts and submission outcomes for the terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"orderdesk/internal/domain"
	"orderdesk/internal/lookup"
	"orderdesk/internal/order"
)

var (
	accent  = lipgloss.Color("#2563EB")
	fg      = lipgloss.Color("#E5E7EB")
	dim     = lipgloss.Color("#6B7280")
	faint   = lipgloss.Color("#3F3F46")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
	warning = lipgloss.Color("#F59E0B")
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 2)

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	labelStyle    = lipgloss.NewStyle().Foreground(dim).Width(14)
	passStyle     = lipgloss.NewStyle().Foreground(success).Bold(true)
	failStyle     = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	separatorLine = lipgloss.NewStyle().Foreground(faint).Render(strings.Repeat("─", 60))
)

// RenderListing prints the cached entries of one picker as a table.
func RenderListing(l lookup.Listing) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(string(l.Kind)))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d shown, %d of %d loaded, page %d", l.Shown, l.Cached, l.TotalCount, l.CurrentPage)))
	b.WriteString("\n  " + separatorLine + "\n")

	rows := listingRows(l.Items)
	if len(rows) == 0 {
		b.WriteString("  " + dimStyle.Render("nothing found") + "\n")
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("  %-8s %s", r[0], titleStyle.Render(r[1])))
		if r[2] != "" {
			b.WriteString("  " + dimStyle.Render(r[2]))
		}
		b.WriteString("\n")
	}
	if l.HasMore {
		b.WriteString("  " + warnStyle.Render("more available, use --page to load further") + "\n")
	}
	return b.String()
}

func listingRows(items any) [][3]string {
	var rows [][3]string
	add := func(id domain.ID, name string, details ...string) {
		rows = append(rows, [3]string{id.String(), name, joinNonEmpty(details)})
	}
	switch v := items.(type) {
	case []domain.Client:
		for _, c := range v {
			add(c.ID, c.DisplayName(), c.Phone, c.INN)
		}
	case []domain.Account:
		for _, a := range v {
			add(a.ID, a.Name, a.Number)
		}
	case []domain.Organization:
		for _, o := range v {
			add(o.ID, o.Name, o.INN, o.Type)
		}
	case []domain.Warehouse:
		for _, w := range v {
			add(w.ID, w.Name, w.Address)
		}
	case []domain.PriceType:
		for _, p := range v {
			add(p.ID, p.Name)
		}
	case []domain.Product:
		for _, p := range v {
			add(p.ID, p.Name, p.Code, p.FirstPrice().StringFixed(2), "stock "+p.Stock.String())
		}
	}
	return rows
}

// RenderDraft prints the selections, line items and total of a draft.
func RenderDraft(s order.Snapshot) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Order draft"))
	if s.Empty {
		b.WriteString("  " + dimStyle.Render("empty"))
	}
	b.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			value = dimStyle.Render("not selected")
		}
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}
	field("customer", selected(s.Customer, func(c domain.Client) string { return c.DisplayName() }))
	field("loyalty", loyaltyLine(s.Loyalty))
	field("account", selected(s.Account, func(a domain.Account) string { return a.Name }))
	field("organization", selected(s.Organization, func(o domain.Organization) string { return o.Name }))
	field("warehouse", selected(s.Warehouse, func(w domain.Warehouse) string { return w.Name }))
	field("price type", selected(s.PriceType, func(p domain.PriceType) string { return p.Name }))

	b.WriteString(separatorLine + "\n")
	if len(s.Items) == 0 {
		b.WriteString(dimStyle.Render("no items") + "\n")
	}
	for _, it := range s.Items {
		b.WriteString(fmt.Sprintf("%-8s %-28s %4d x %10s = %10s\n",
			it.ItemID, truncate(it.Name, 28), it.Quantity, it.UnitPrice.StringFixed(2), it.Subtotal.StringFixed(2)))
	}
	b.WriteString(separatorLine + "\n")
	b.WriteString(labelStyle.Render("total") + titleStyle.Render(s.Total.StringFixed(2)))
	return boxStyle.Render(b.String()) + "\n"
}

// RenderSuccess prints a successful submission.
func RenderSuccess(message string, ids []domain.ID) string {
	line := passStyle.Render("✓ " + message)
	if len(ids) > 0 {
		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			parts = append(parts, id.String())
		}
		line += "  " + dimStyle.Render("document "+strings.Join(parts, ", "))
	}
	return line + "\n"
}

// RenderFailure prints an error the operator has to act on.
func RenderFailure(msg string) string {
	return failStyle.Render("✗ "+msg) + "\n"
}

func loyaltyLine(a domain.LoyaltyAssociation) string {
	switch a.Status {
	case domain.LoyaltyFound:
		return fmt.Sprintf("card %d (balance %s)", a.Card.CardNumber, a.Card.Balance.StringFixed(2))
	case domain.LoyaltyNotFound:
		return "no card"
	default:
		return ""
	}
}

func selected[T any](p *T, name func(T) string) string {
	if p == nil {
		return ""
	}
	return name(*p)
}

func joinNonEmpty(values []string) string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, " · ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
