// Command astinspect is an interactive tview inspector for the
// instrumented AST: load a .sol file, browse its contracts, and drill
// into each member's shape. Adapted from the teacher's ABI browser,
// now parsing live source through the engine instead of reading
// pre-built ABI JSON files.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/evmts/dev/internal/solsummary"
	"github.com/evmts/dev/pkg/ast"
	"github.com/evmts/dev/pkg/solc"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// item is one entry in the members list: a variable, function, event,
// modifier, struct, or enum, flattened for uniform display.
type item struct {
	label string
	kind  string
	text  string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: astinspect <path-to-sol-file>")
		os.Exit(1)
	}
	path := os.Args[1]

	contracts, err := loadContracts(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error parsing source:", err)
		os.Exit(1)
	}

	app := tview.NewApplication()

	contractsList := tview.NewList().ShowSecondaryText(false)
	membersList := tview.NewList().ShowSecondaryText(false)
	detailsText := tview.NewTextView().SetDynamicColors(true)

	var selectedItems []item

	for _, c := range contracts {
		contractsList.AddItem(c.Name, "", 0, nil)
	}

	flex := tview.NewFlex().AddItem(contractsList, 0, 1, true)

	selectContract := func(index int, mainText string) {
		var contract *solsummary.Contract
		for i := range contracts {
			if contracts[i].Name == mainText {
				contract = &contracts[i]
				break
			}
		}
		if contract == nil {
			return
		}

		selectedItems = flattenContract(*contract)

		header := fmt.Sprintf("[yellow]%s[white]", contract.Name)
		if len(contract.Inherits) > 0 {
			header += fmt.Sprintf(" (inherits: %s)", strings.Join(contract.Inherits, ", "))
		}
		detailsText.SetText(header)

		membersList.Clear()
		for _, it := range selectedItems {
			membersList.AddItem(fmt.Sprintf("%s: %s", it.kind, it.label), "", 0, nil)
		}

		flex.RemoveItem(membersList)
		flex.RemoveItem(detailsText)
		flex.AddItem(membersList, 0, 1, false).
			AddItem(detailsText, 0, 2, false)

		app.SetFocus(membersList)
	}

	contractsList.SetSelectedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		selectContract(index, mainText)
	})

	membersList.SetSelectedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		if index >= len(selectedItems) {
			return
		}
		detailsText.SetText(selectedItems[index].text)
	})

	membersList.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft:
			flex.RemoveItem(membersList)
			flex.RemoveItem(detailsText)
			selectedItems = nil
			app.SetFocus(contractsList)
			return nil
		}
		return event
	})

	contractsList.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyRight:
			if contractsList.GetItemCount() == 0 {
				return nil
			}
			index := contractsList.GetCurrentItem()
			mainText, _ := contractsList.GetItemText(index)
			selectContract(index, mainText)
			return nil
		}
		return event
	})

	if err := app.SetRoot(flex, true).EnableMouse(true).Run(); err != nil {
		panic(err)
	}
}

// loadContracts parses path through solc and summarizes every
// ContractDefinition in the resulting source unit.
func loadContracts(path string) ([]solsummary.Contract, error) {
	bin, err := solc.Find()
	if err != nil {
		return nil, err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	unit, err := ast.ParseSource(context.Background(), bin, string(source), solc.Settings{})
	if err != nil {
		return nil, err
	}

	return solsummary.ExtractContracts(unit), nil
}

// flattenContract renders every member kind of a contract summary
// into a single ordered list suitable for the members list widget.
func flattenContract(c solsummary.Contract) []item {
	var items []item
	for _, v := range c.Variables {
		items = append(items, item{
			label: v.Name,
			kind:  "variable",
			text:  fmt.Sprintf("[green]variable[white] %s %s\n[yellow]visibility:[white] %s\n", v.Type, v.Name, v.Visibility),
		})
	}
	for _, f := range c.Functions {
		items = append(items, item{
			label: f.Name,
			kind:  "function",
			text:  renderFunction(f),
		})
	}
	for _, e := range c.Events {
		items = append(items, item{
			label: e.Name,
			kind:  "event",
			text:  fmt.Sprintf("[green]event[white] %s(%s)\n", e.Name, renderParameters(e.Parameters)),
		})
	}
	for _, m := range c.Modifiers {
		items = append(items, item{
			label: m.Name,
			kind:  "modifier",
			text:  fmt.Sprintf("[green]modifier[white] %s(%s)\n", m.Name, renderParameters(m.Parameters)),
		})
	}
	for _, s := range c.Structs {
		fields := make([]string, len(s.Members))
		for i, m := range s.Members {
			fields[i] = fmt.Sprintf("%s %s", m.Type, m.Name)
		}
		items = append(items, item{
			label: s.Name,
			kind:  "struct",
			text:  fmt.Sprintf("[green]struct[white] %s {\n  %s\n}\n", s.Name, strings.Join(fields, "\n  ")),
		})
	}
	for _, e := range c.Enums {
		items = append(items, item{
			label: e.Name,
			kind:  "enum",
			text:  fmt.Sprintf("[green]enum[white] %s { %s }\n", e.Name, strings.Join(e.Values, ", ")),
		})
	}
	return items
}

func renderFunction(f solsummary.Function) string {
	name := f.Name
	if f.Kind != "" && f.Kind != "function" {
		name = f.Kind
	}
	details := fmt.Sprintf("[green]function[white] %s(%s)\n", name, renderParameters(f.Parameters))
	if len(f.ReturnParameters) > 0 {
		details += fmt.Sprintf("[yellow]returns:[white] (%s)\n", renderParameters(f.ReturnParameters))
	}
	details += fmt.Sprintf("[yellow]visibility:[white] %s\n", f.Visibility)
	details += fmt.Sprintf("[yellow]mutability:[white] %s\n", f.StateMutability)
	if len(f.Modifiers) > 0 {
		details += fmt.Sprintf("[yellow]modifiers:[white] %s\n", strings.Join(f.Modifiers, ", "))
	}
	return details
}

func renderParameters(params []solsummary.Parameter) string {
	rendered := make([]string, len(params))
	for i, p := range params {
		entry := fmt.Sprintf("%s %s", p.Type, p.Name)
		if p.Indexed {
			entry = "indexed " + entry
		}
		rendered[i] = strings.TrimSpace(entry)
	}
	return strings.Join(rendered, ", ")
}
