// Package catalog derives the two-level category taxonomy shown by the
// storefront: product rows define which categories exist, admin-authored
// CategoryMeta decorates them with images and links.
package catalog

import (
	"encoding/json"
	"sort"
	"strings"

	"catalog-service/internal/models"
)

// rootLabel keys top-level categories in the metadata lookup.
const rootLabel = "root"

// MetaKey builds the normalized lookup key for a category name under a
// parent ("" for top-level). Normalization is trim + lowercase on both
// sides so admin-entered and product-entered labels match regardless of
// casing or stray whitespace.
func MetaKey(parent, name string) string {
	p := strings.ToLower(strings.TrimSpace(parent))
	if p == "" {
		p = rootLabel
	}
	return p + ":" + strings.ToLower(strings.TrimSpace(name))
}

// SubcategorySet is a set of subcategory labels. It serializes as a
// sorted JSON array since sets have no native JSON form.
type SubcategorySet map[string]struct{}

func (s SubcategorySet) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return json.Marshal(names)
}

func (s *SubcategorySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	set := make(SubcategorySet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	*s = set
	return nil
}

// Tree maps each category label to the set of subcategory labels
// observed on its products. Labels keep their original casing.
type Tree map[string]SubcategorySet

// BuildTree derives the structural category map from product rows.
// Products with an empty category are excluded from the tree (but not
// from flat listings elsewhere).
func BuildTree(products []models.Product) Tree {
	tree := make(Tree)
	for _, p := range products {
		category := strings.TrimSpace(p.Category)
		if category == "" {
			continue
		}
		if _, ok := tree[category]; !ok {
			tree[category] = make(SubcategorySet)
		}
		if sub := strings.TrimSpace(p.SubcategoryName()); sub != "" {
			tree[category][sub] = struct{}{}
		}
	}
	return tree
}

// BuildMetaLookup indexes metadata rows by normalized parent:name key.
// Later duplicates win, mirroring last-writer-wins on the unique
// (name, parent_name) constraint.
func BuildMetaLookup(meta []models.CategoryMeta) map[string]models.CategoryMeta {
	lookup := make(map[string]models.CategoryMeta, len(meta))
	for _, m := range meta {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		lookup[MetaKey(m.ParentLabel(), m.Name)] = m
	}
	return lookup
}

// Reconcile merges product-derived structure with authored metadata into
// a renderable tree. The category universe is defined strictly by
// product membership: metadata rows for categories with no products do
// not appear. Categories and subcategories are ordered alphabetically,
// case-insensitively.
func Reconcile(products []models.Product, meta []models.CategoryMeta) []models.MergedCategory {
	return MergeTree(BuildTree(products), BuildMetaLookup(meta))
}

// MergeTree decorates an already-built structural tree with metadata.
func MergeTree(tree Tree, lookup map[string]models.CategoryMeta) []models.MergedCategory {
	merged := make([]models.MergedCategory, 0, len(tree))

	for name, subs := range tree {
		node := models.MergedCategory{
			Name:          name,
			ParentName:    nil,
			Subcategories: make([]models.MergedCategory, 0, len(subs)),
		}
		if m, ok := lookup[MetaKey("", name)]; ok {
			node.ImageURL = m.ImageURL
			node.Link = m.Link
			node.HasMeta = true
		}

		parent := name
		for subName := range subs {
			child := models.MergedCategory{
				Name:          subName,
				ParentName:    &parent,
				Subcategories: []models.MergedCategory{},
			}
			if m, ok := lookup[MetaKey(name, subName)]; ok {
				child.ImageURL = m.ImageURL
				child.Link = m.Link
				child.HasMeta = true
			}
			node.Subcategories = append(node.Subcategories, child)
		}
		sortCategories(node.Subcategories)

		merged = append(merged, node)
	}
	sortCategories(merged)

	return merged
}

// sortCategories orders nodes alphabetically, case-insensitive, with the
// raw label as a deterministic tiebreaker.
func sortCategories(cats []models.MergedCategory) {
	sort.SliceStable(cats, func(i, j int) bool {
		a, b := strings.ToLower(cats[i].Name), strings.ToLower(cats[j].Name)
		if a == b {
			return cats[i].Name < cats[j].Name
		}
		return a < b
	})
}
