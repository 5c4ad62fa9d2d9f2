package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TemplateSnapshot is the frozen visual contract stored per version.
type TemplateSnapshot struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Category string          `json:"category"`
	Layout   TemplateLayout  `json:"layout"`
	Fields   []TemplateField `json:"fields"`
	Styles   TemplateStyles  `json:"styles"`
	Meta     TemplateMeta    `json:"meta"`
}

// TemplateVersion is an immutable snapshot of a template, written once on
// every template create/update and never mutated afterwards. Honors resolve
// their pinned version against this table, not the live template.
type TemplateVersion struct {
	gorm.Model
	TemplateID uint                                 `gorm:"not null;uniqueIndex:idx_template_versions_pin" json:"template_id"`
	Version    int                                  `gorm:"not null;uniqueIndex:idx_template_versions_pin" json:"version"`
	Snapshot   datatypes.JSONType[TemplateSnapshot] `json:"snapshot"`
}

func (TemplateVersion) TableName() string {
	return "template_versions"
}
