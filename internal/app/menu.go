package app

import (
	tea "github.com/charmbracelet/bubbletea"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Prompt  *PromptSpec
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

func buildMenuTree(act *actions) *Menu {
	root := &Menu{
		Title: "Main Menu",
		Items: []MenuItem{
			{Label: "Customers ->", Submenu: loadCustomersMenu(act)},
			{Label: "Orders ->", Submenu: loadOrdersMenu(act)},
			{Label: "Import / Export ->", Submenu: loadSpecialMenu(act)},
			{Label: "About", Action: act.about},
		},
	}

	linkParents(root, nil)

	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

func loadCustomersMenu(act *actions) *Menu {
	return &Menu{
		Title: "Customers",
		Items: []MenuItem{
			{Label: "List All", Action: act.listCustomers},
			{Label: "Search by Name", Prompt: act.searchCustomersPrompt()},
			{Label: "Add Customer", Prompt: act.createCustomerPrompt()},
			{Label: "Edit Customer", Prompt: act.updateCustomerPrompt()},
			{Label: "Delete Customer", Prompt: act.deleteCustomerPrompt()},
			{Label: "Back"},
		},
	}
}

func loadOrdersMenu(act *actions) *Menu {
	return &Menu{
		Title: "Orders",
		Items: []MenuItem{
			{Label: "List All", Action: act.listOrders},
			{Label: "Add Order", Prompt: act.createOrderPrompt()},
			{Label: "Edit Order", Prompt: act.updateOrderPrompt()},
			{Label: "Delete Order", Prompt: act.deleteOrderPrompt()},
			{Label: "Back"},
		},
	}
}

func loadSpecialMenu(act *actions) *Menu {
	return &Menu{
		Title: "Import / Export",
		Items: []MenuItem{
			{Label: "Export Data (JSON + ZIP)", Action: act.exportData},
			{Label: "Import from Web", Prompt: act.importWebPrompt()},
			{Label: "Import from Local File", Prompt: act.importFilePrompt()},
			{Label: "Stage Import for Review", Prompt: act.stageBatchPrompt()},
			{Label: "Review Staged Batch", Prompt: act.reviewBatchPrompt()},
			{Label: "Pending Batches", Action: act.pendingBatches},
			{Label: "Promote Staged Batch", Prompt: act.promoteBatchPrompt()},
			{Label: "Publish Data to Web", Action: act.publishData},
			{Label: "View System Logs", Action: act.viewLogs},
			{Label: "Processed Import History", Action: act.history},
			{Label: "Back"},
		},
	}
}
