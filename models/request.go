package models

import (
	"bytes"
	"encoding/json"

	"gorm.io/datatypes"
)

// ParameterInput is one parameter entry in a create or update payload.
// On update, a non-nil ID targets an existing row; entries without one are inserted.
type ParameterInput struct {
	ID              *uint           `json:"id,omitempty"`
	Key             string          `json:"key"`
	Label           string          `json:"label"`
	Type            string          `json:"type"`
	Value           json.RawMessage `json:"value"`
	DefaultValue    json.RawMessage `json:"default_value,omitempty"`
	Required        *bool           `json:"required,omitempty"`
	Options         json.RawMessage `json:"options,omitempty"`
	ValidationRules json.RawMessage `json:"validation_rules,omitempty"`
	Group           *string         `json:"group,omitempty"`
	SortOrder       *int            `json:"sort_order,omitempty"`
}

// ToModel builds the row for robotID with the documented defaults applied.
func (p ParameterInput) ToModel(robotID uint) RobotParameter {
	param := RobotParameter{
		RobotID:         robotID,
		Key:             p.Key,
		Label:           p.Label,
		Type:            p.Type,
		Value:           JSONDocument(p.Value),
		DefaultValue:    JSONDocument(p.DefaultValue),
		Options:         JSONDocument(p.Options),
		ValidationRules: JSONDocument(p.ValidationRules),
		Group:           p.Group,
	}
	if p.Required != nil {
		param.Required = *p.Required
	}
	if p.SortOrder != nil {
		param.SortOrder = *p.SortOrder
	}
	return param
}

// ExistingID returns the targeted row id. A zero id counts as absent.
func (p ParameterInput) ExistingID() (uint, bool) {
	if p.ID == nil || *p.ID == 0 {
		return 0, false
	}
	return *p.ID, true
}

// UpdateFields is the column set written when an existing parameter is updated in place.
func (p ParameterInput) UpdateFields() map[string]interface{} {
	param := p.ToModel(0)
	return map[string]interface{}{
		"key":              param.Key,
		"label":            param.Label,
		"type":             param.Type,
		"value":            param.Value,
		"default_value":    param.DefaultValue,
		"required":         param.Required,
		"options":          param.Options,
		"validation_rules": param.ValidationRules,
		"group":            param.Group,
		"sort_order":       param.SortOrder,
	}
}

// JSONDocument turns a raw payload into a nullable JSON column value.
// Absent and literal null both map to SQL NULL.
func JSONDocument(raw json.RawMessage) datatypes.JSON {
	if IsJSONNull(raw) {
		return nil
	}
	return datatypes.JSON(bytes.TrimSpace(raw))
}

// IsJSONNull reports whether raw is empty or the JSON literal null.
func IsJSONNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Upload is one uploaded blob carried from the transport into the service.
type Upload struct {
	Filename string
	MimeType string
	Data     []byte
}

// Size returns the upload's byte length.
func (u Upload) Size() int64 { return int64(len(u.Data)) }

// CreateRobotRequest is the payload for creating a robot aggregate.
type CreateRobotRequest struct {
	Name          string           `json:"name"`
	Description   *string          `json:"description"`
	Language      string           `json:"language"`
	Tags          []string         `json:"tags"`
	Code          string           `json:"code"`
	IsActive      *bool            `json:"is_active"`
	Parameters    []ParameterInput `json:"parameters"`
	ImageTitles   []*string        `json:"image_titles"`
	ImageCaptions []*string        `json:"image_captions"`
	FileNames     []*string        `json:"file_names"`

	Images []Upload `json:"-"`
	Files  []Upload `json:"-"`
}

// UpdateRobotRequest is a partial update; nil fields are left untouched.
type UpdateRobotRequest struct {
	Name           *string           `json:"name"`
	Description    NullableString    `json:"description"`
	Language       *string           `json:"language"`
	Tags           *[]string         `json:"tags"`
	Code           *string           `json:"code"`
	IsActive       *bool             `json:"is_active"`
	Parameters     *[]ParameterInput `json:"parameters"`
	CreateVersion  bool              `json:"create_version"`
	Changelog      *string           `json:"changelog"`
	DeleteImageIDs []uint            `json:"delete_image_ids"`
	DeleteFileIDs  []uint            `json:"delete_file_ids"`
	ImageTitles    []*string         `json:"image_titles"`
	ImageCaptions  []*string         `json:"image_captions"`
	FileNames      []*string         `json:"file_names"`

	Images []Upload `json:"-"`
	Files  []Upload `json:"-"`
}

// NullableString remembers whether its JSON field was present, so an
// explicit null can clear a column while an omitted field leaves it alone.
type NullableString struct {
	Set   bool
	Value *string
}

// NullString returns a present NullableString holding value.
func NullString(value *string) NullableString {
	return NullableString{Set: true, Value: value}
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if IsJSONNull(data) {
		n.Value = nil
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	n.Value = &value
	return nil
}

// ListRobotsQuery filters and paginates the robot list.
type ListRobotsQuery struct {
	Language *string
	IsActive *bool
	Search   *string
	Page     int
	PerPage  int
}

// LoginRequest carries phone + password credentials.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// At returns the element at i, or nil when the slice is shorter.
func At(values []*string, i int) *string {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}
