package sitemap

import (
	"slices"

	"github.com/starford/sitemapd/internal/models"
)

// LinkList is the mutable, ordered link collection handed to listeners.
// A single instance is threaded through every listener of a pass.
type LinkList struct {
	items []models.LinkEntry
}

// NewLinkList returns a list holding items in order.
func NewLinkList(items ...models.LinkEntry) *LinkList {
	return &LinkList{items: append([]models.LinkEntry(nil), items...)}
}

// Len returns the number of links.
func (l *LinkList) Len() int { return len(l.items) }

// At returns the link at index i.
func (l *LinkList) At(i int) models.LinkEntry { return l.items[i] }

// Set replaces the link at index i.
func (l *LinkList) Set(i int, e models.LinkEntry) { l.items[i] = e }

// Add appends links to the end of the list.
func (l *LinkList) Add(e ...models.LinkEntry) {
	l.items = append(l.items, e...)
}

// Insert places e at index i, shifting later links. i may equal Len.
func (l *LinkList) Insert(i int, e models.LinkEntry) {
	l.items = slices.Insert(l.items, i, e)
}

// Remove deletes the link at index i.
func (l *LinkList) Remove(i int) {
	l.items = slices.Delete(l.items, i, i+1)
}

// Filter keeps only the links for which keep returns true, preserving order.
// It returns the number of links removed.
func (l *LinkList) Filter(keep func(models.LinkEntry) bool) int {
	before := len(l.items)
	l.items = slices.DeleteFunc(l.items, func(e models.LinkEntry) bool { return !keep(e) })
	return before - len(l.items)
}

// SortStable orders the links with cmp, keeping equal links in place.
func (l *LinkList) SortStable(cmp func(a, b models.LinkEntry) int) {
	slices.SortStableFunc(l.items, cmp)
}

// Replace swaps the whole content of the list.
func (l *LinkList) Replace(items []models.LinkEntry) {
	l.items = append(l.items[:0:0], items...)
}

// Items returns a copy of the links in order.
func (l *LinkList) Items() []models.LinkEntry {
	return append([]models.LinkEntry(nil), l.items...)
}
