package storefront

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	ChangeDaily   = "daily"
	ChangeWeekly  = "weekly"
	ChangeMonthly = "monthly"

	productPriority = 0.7
	postPriority    = 0.6

	// SitemapTimeFormat is ISO-8601 with a numeric timezone offset
	SitemapTimeFormat = "2006-01-02T15:04:05-07:00"

	sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"
)

// StaticRoute is a fixed page listed in the sitemap.
type StaticRoute struct {
	Path       string
	ChangeFreq string
	Priority   float64
}

// DefaultStaticRoutes are the site's fixed pages: the home page first.
func DefaultStaticRoutes() []StaticRoute {
	return []StaticRoute{
		{Path: "/", ChangeFreq: ChangeDaily, Priority: 1.0},
		{Path: "/products", ChangeFreq: ChangeDaily, Priority: 0.8},
		{Path: "/blog", ChangeFreq: ChangeMonthly, Priority: 0.8},
		{Path: "/about", ChangeFreq: ChangeMonthly, Priority: 0.8},
		{Path: "/contact", ChangeFreq: ChangeMonthly, Priority: 0.8},
		{Path: "/admin/login", ChangeFreq: ChangeMonthly, Priority: 0.8},
	}
}

// SitemapEntry is one <url> element.
type SitemapEntry struct {
	Loc        string
	LastMod    time.Time
	ChangeFreq string
	Priority   float64
}

// SiteIndexBuilder derives the sitemap from current store state. Nothing is cached.
type SiteIndexBuilder struct {
	repo   Repository
	routes []StaticRoute
	now    func() time.Time
}

// NewSiteIndexBuilder creates a sitemap builder. A repository is required.
func NewSiteIndexBuilder(opts ...Option) (*SiteIndexBuilder, error) {
	o := buildOptions(opts)
	if o.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &SiteIndexBuilder{repo: o.repository, routes: o.routes, now: o.now}, nil
}

// BuildSiteIndex returns one entry per static route, product and blog post, in that order.
func (b *SiteIndexBuilder) BuildSiteIndex(ctx context.Context, baseURL string) ([]SitemapEntry, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	now := b.now()

	products, err := b.repo.ListProducts(ctx, ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list products for sitemap: %w", err)
	}
	posts, err := b.repo.ListPosts(ctx, ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts for sitemap: %w", err)
	}

	entries := make([]SitemapEntry, 0, len(b.routes)+len(products)+len(posts))
	for _, route := range b.routes {
		entries = append(entries, SitemapEntry{
			Loc:        baseURL + route.Path,
			LastMod:    now,
			ChangeFreq: route.ChangeFreq,
			Priority:   route.Priority,
		})
	}
	for _, p := range products {
		lastMod := now
		if p.LastUpdated != nil {
			lastMod = *p.LastUpdated
		}
		entries = append(entries, SitemapEntry{
			Loc:        baseURL + "/product/" + p.ID,
			LastMod:    lastMod,
			ChangeFreq: ChangeWeekly,
			Priority:   productPriority,
		})
	}
	for _, p := range posts {
		lastMod := now
		if !p.DatePosted.IsZero() {
			lastMod = p.DatePosted
		}
		entries = append(entries, SitemapEntry{
			Loc:        baseURL + "/blog/" + p.ID,
			LastMod:    lastMod,
			ChangeFreq: ChangeWeekly,
			Priority:   postPriority,
		})
	}
	return entries, nil
}

// URLSet is the XML sitemap document.
type URLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// NewURLSet converts entries into the XML document.
func NewURLSet(entries []SitemapEntry) URLSet {
	set := URLSet{Xmlns: sitemapNamespace, URLs: make([]sitemapURL, 0, len(entries))}
	for _, e := range entries {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        e.Loc,
			LastMod:    e.LastMod.Format(SitemapTimeFormat),
			ChangeFreq: e.ChangeFreq,
			Priority:   strconv.FormatFloat(e.Priority, 'f', 1, 64),
		})
	}
	return set
}

// MarshalSitemap renders entries as an XML document including the header.
func MarshalSitemap(entries []SitemapEntry) ([]byte, error) {
	body, err := xml.MarshalIndent(NewURLSet(entries), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
