// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package reshape

import (
	"strconv"
	"strings"

	"github.com/tomtom215/matomo-relay/internal/config"
)

// Category is the display metadata a site inherits from its category.
type Category struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Classifier maps site IDs to categories using the configured table.
// The first category listing an ID wins; unknown IDs get the default.
type Classifier struct {
	table []config.CategoryConfig
	def   Category
}

// NewClassifier builds a classifier over table, preserving its order.
// The default category is the entry keyed config.DefaultCategoryKey.
func NewClassifier(table []config.CategoryConfig) *Classifier {
	c := &Classifier{
		table: table,
		def:   Category{Key: config.DefaultCategoryKey},
	}
	for _, cat := range table {
		if cat.Key == config.DefaultCategoryKey {
			c.def = toCategory(cat)
			break
		}
	}
	return c
}

// Classify returns the first category whose site list contains id.
func (c *Classifier) Classify(id int) Category {
	for _, cat := range c.table {
		for _, site := range cat.Sites {
			if site == id {
				return toCategory(cat)
			}
		}
	}
	return c.def
}

// ClassifyString parses id first. Unparsable IDs get the default category.
func (c *Classifier) ClassifyString(id string) Category {
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil {
		return c.def
	}
	return c.Classify(n)
}

// Table returns the category table in declaration order.
func (c *Classifier) Table() []config.CategoryConfig {
	return c.table
}

func toCategory(cat config.CategoryConfig) Category {
	return Category{Key: cat.Key, Name: cat.Name, Icon: cat.Icon, Color: cat.Color}
}
