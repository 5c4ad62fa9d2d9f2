package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TemplateField type enum values
const (
	FieldTypeStatic  = "static"
	FieldTypeDynamic = "dynamic"
)

type FieldPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type FieldFont struct {
	Size   int    `json:"size,omitempty"`
	Color  string `json:"color,omitempty"`
	Weight string `json:"weight,omitempty"`
	Family string `json:"family,omitempty"`
}

type TemplateField struct {
	Key         string        `json:"key"`
	Label       string        `json:"label,omitempty"`
	Type        string        `json:"type,omitempty"`
	Placeholder string        `json:"placeholder,omitempty"`
	Position    FieldPosition `json:"position"`
	Font        FieldFont     `json:"font"`
	Size        int           `json:"size,omitempty"`
}

type TemplateLayout struct {
	BackgroundURL string `json:"background_url,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	Orientation   string `json:"orientation,omitempty"`
}

type TemplateStyles struct {
	GlobalFontFamily string `json:"global_font_family,omitempty"`
	ColorTheme       string `json:"color_theme,omitempty"`
}

type SignatureBlock struct {
	Show         bool   `json:"show"`
	SignatureURL string `json:"signature_url,omitempty"`
	Name         string `json:"name,omitempty"`
	Designation  string `json:"designation,omitempty"`
}

type TemplateMeta struct {
	DefaultExpiryMonths *int           `json:"default_expiry_months,omitempty"`
	AllowExpiryOverride bool           `json:"allow_expiry_override"`
	IssuedByLabel       string         `json:"issued_by_label,omitempty"`
	SignatureBlock      SignatureBlock `json:"signature_block"`
	SealURL             string         `json:"seal_url,omitempty"`
}

// Template is a reusable visual/field layout definition. Honors pin a
// (template_id, version) pair at issue time; edits bump Version and are
// snapshotted into TemplateVersion, so pinned renders never change.
type Template struct {
	gorm.Model
	ClientID string                                `gorm:"not null;default:'default'" json:"client_id"`
	Name     string                                `gorm:"not null" json:"name"`
	Type     string                                `gorm:"not null" json:"type"`
	Category string                                `gorm:"not null" json:"category"`
	Layout   datatypes.JSONType[TemplateLayout]    `json:"layout"`
	Fields   datatypes.JSONType[[]TemplateField]   `json:"fields"`
	Styles   datatypes.JSONType[TemplateStyles]    `json:"styles"`
	Meta     datatypes.JSONType[TemplateMeta]      `json:"meta"`
	Version  int                                   `gorm:"not null;default:1" json:"version"`
	Active   bool                                  `gorm:"default:true" json:"active"`
}

func (Template) TableName() string {
	return "templates"
}

// Snapshot captures the template's current visual contract for immutable
// versioning.
func (t *Template) Snapshot() TemplateSnapshot {
	return TemplateSnapshot{
		Name:     t.Name,
		Type:     t.Type,
		Category: t.Category,
		Layout:   t.Layout.Data(),
		Fields:   t.Fields.Data(),
		Styles:   t.Styles.Data(),
		Meta:     t.Meta.Data(),
	}
}
