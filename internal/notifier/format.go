package notifier

import (
	"fmt"
	"strings"

	"github.com/newthinker/trendscreen/internal/orders"
)

// Text renders s as a short plain-text message.
func Text(s Summary) string {
	var sb strings.Builder

	title := "Monthly screen"
	if s.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintf(&sb, "%s as of %s\n", title, s.AsOf)
	fmt.Fprintf(&sb, "Picks: %s\n", listOrNone(s.Picks))

	if s.PreviousAsOf == "" {
		sb.WriteString("No previous picks, first run\n")
	}

	adds, drops := orders.Split(s.Orders)
	if len(adds) == 0 && len(drops) == 0 {
		sb.WriteString("No changes since last month\n")
	}
	for _, o := range drops {
		fmt.Fprintf(&sb, "DROP %s: sell %s\n", o.Symbol, o.Quantity)
	}
	for _, o := range adds {
		qty := o.Quantity.String()
		if qty == "" {
			qty = "?"
		}
		fmt.Fprintf(&sb, "ADD %s: buy %s\n", o.Symbol, qty)
	}

	if len(s.Failed) > 0 {
		fmt.Fprintf(&sb, "Fetch failed: %s\n", strings.Join(s.Failed, ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
