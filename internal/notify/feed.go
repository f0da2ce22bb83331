package notify

import (
	"encoding/xml"
	"sort"
	"time"
)

// atomFeed is the subset of a YouTube channel feed the notifier reads.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Author  atomAuthor  `xml:"author"`
	Entries []atomEntry `xml:"entry"`
}

type atomAuthor struct {
	Name string `xml:"name"`
	URI  string `xml:"uri"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	Author    atomAuthor `xml:"author"`
	Published time.Time  `xml:"published"`
}

// URL is the alternate link of the entry, the video page.
func (e atomEntry) URL() string {
	for _, l := range e.Links {
		if l.Rel == "alternate" {
			return l.Href
		}
	}
	if len(e.Links) > 0 {
		return e.Links[0].Href
	}
	return ""
}

// oldestFirst returns the entries sorted by publish time.
func (f *atomFeed) oldestFirst() []atomEntry {
	out := append([]atomEntry(nil), f.Entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Published.Before(out[j].Published) })
	return out
}

// latest is the newest publish time, zero for an empty feed.
func (f *atomFeed) latest() time.Time {
	var t time.Time
	for _, e := range f.Entries {
		if e.Published.After(t) {
			t = e.Published
		}
	}
	return t
}

// values fills the notification template placeholders for e.
func (f *atomFeed) values(e atomEntry) map[string]string {
	author := e.Author
	if author.Name == "" {
		author = f.Author
	}
	return map[string]string{
		"author-name": author.Name,
		"author-url":  author.URI,
		"video-title": e.Title,
		"video-url":   e.URL(),
	}
}
