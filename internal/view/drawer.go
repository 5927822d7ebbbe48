package view

import (
	"sync"

	"github.com/sells-group/basin-cli/internal/observe"
)

// DrawerItem is a navigation entry that raises a notification when its
// card has new results.
type DrawerItem struct {
	Title  string
	CardID string

	mu       sync.Mutex
	alert    bool
	disabled bool
	active   bool
}

// NewDrawerItem creates an item that is disabled until ready first turns true.
func NewDrawerItem(title, cardID string, ready *observe.Field[bool]) *DrawerItem {
	d := &DrawerItem{Title: title, CardID: cardID, disabled: true}
	ready.Observe(func(c observe.Change[bool]) {
		if c.New {
			d.addNotif()
			return
		}
		d.removeNotif()
	})
	return d
}

func (d *DrawerItem) addNotif() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alert = true
	d.disabled = false
}

func (d *DrawerItem) removeNotif() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alert = false
}

// Click activates the item and clears its notification.
func (d *DrawerItem) Click() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = true
	d.alert = false
}

// Alert reports whether the notification is showing.
func (d *DrawerItem) Alert() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.alert
}

// Disabled reports whether the item can be clicked.
func (d *DrawerItem) Disabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disabled
}

// Active reports whether the item was clicked.
func (d *DrawerItem) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Drawer is the navigation list. Clicking one item shows its card and
// deactivates the others.
type Drawer struct {
	Items []*DrawerItem
}

// Click activates the item mounted on cardID and reports whether one exists.
func (dr *Drawer) Click(cardID string) bool {
	found := false
	for _, it := range dr.Items {
		if it.CardID == cardID {
			it.Click()
			found = true
			continue
		}
		it.mu.Lock()
		it.active = false
		it.mu.Unlock()
	}
	return found
}

// Shown returns the card currently displayed, or "".
func (dr *Drawer) Shown() string {
	for _, it := range dr.Items {
		if it.Active() {
			return it.CardID
		}
	}
	return ""
}
