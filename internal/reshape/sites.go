// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package reshape

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Site is a Matomo site annotated with its category. ID keeps idsite as
// Matomo sent it, usually a string such as "16".
type Site struct {
	ID            json.RawMessage `json:"id"`
	Name          string          `json:"name"`
	URL           string          `json:"url"`
	Category      string          `json:"category"`
	CategoryName  string          `json:"categoryName"`
	CategoryIcon  string          `json:"categoryIcon"`
	CategoryColor string          `json:"categoryColor"`
}

// CategoryInfo describes a category in the categories map.
type CategoryInfo struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Sites []int  `json:"sites"`
}

// CategoryGroup is a category with the sites that classified into it.
type CategoryGroup struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Sites []Site `json:"sites"`
}

// SiteDirectory is the /api/sites reply. Categories and Grouped carry
// one entry per configured category in declaration order, even when empty.
type SiteDirectory struct {
	Sites      []Site
	categories []field
	grouped    []field
}

// Group returns the group for a category key.
func (d *SiteDirectory) Group(key string) (CategoryGroup, bool) {
	for _, f := range d.grouped {
		if f.key == key {
			return f.value.(CategoryGroup), true
		}
	}
	return CategoryGroup{}, false
}

type siteDirectoryJSON struct {
	Sites      []Site        `json:"sites"`
	Categories orderedFields `json:"categories"`
	Grouped    orderedFields `json:"grouped"`
}

type orderedFields []field

func (o orderedFields) MarshalJSON() ([]byte, error) {
	return marshalOrdered(o)
}

// MarshalJSON renders {sites, categories, grouped}.
func (d *SiteDirectory) MarshalJSON() ([]byte, error) {
	return json.Marshal(siteDirectoryJSON{
		Sites:      d.Sites,
		Categories: d.categories,
		Grouped:    d.grouped,
	})
}

// Sites classifies SitesManager.getSitesWithAtLeastViewAccess rows and
// groups them by category. A row whose idsite is not an integer is kept in
// the default category with a warning.
func Sites(ctx context.Context, body []byte, c *Classifier) (*SiteDirectory, error) {
	const component = "sites"

	rows, err := parseArray(ctx, component, body)
	if err != nil {
		return nil, err
	}

	out := &SiteDirectory{Sites: []Site{}}
	rows.ForEach(func(_, row gjson.Result) bool {
		idsite := row.Get("idsite")
		if _, ok := integer(idsite); !ok {
			warnRow(ctx, component, reasonBadSiteID, row)
		}
		rawID := idsite.Raw
		if rawID == "" {
			rawID = "null"
		}
		cat := c.ClassifyString(idsite.String())
		out.Sites = append(out.Sites, Site{
			ID:            json.RawMessage(rawID),
			Name:          row.Get("name").String(),
			URL:           row.Get("main_url").String(),
			Category:      cat.Key,
			CategoryName:  cat.Name,
			CategoryIcon:  cat.Icon,
			CategoryColor: cat.Color,
		})
		return true
	})

	for _, cat := range c.Table() {
		ids := append([]int{}, cat.Sites...)
		out.categories = append(out.categories, field{key: cat.Key, value: CategoryInfo{
			Name: cat.Name, Icon: cat.Icon, Color: cat.Color, Sites: ids,
		}})

		members := []Site{}
		for _, s := range out.Sites {
			if s.Category == cat.Key {
				members = append(members, s)
			}
		}
		out.grouped = append(out.grouped, field{key: cat.Key, value: CategoryGroup{
			Name: cat.Name, Icon: cat.Icon, Color: cat.Color, Sites: members,
		}})
	}
	return out, nil
}
