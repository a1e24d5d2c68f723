package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Languages accepted for a robot's code.
const (
	LanguageNelogica    = "nelogica"
	LanguagePython      = "python"
	LanguageJS          = "js"
	LanguageOther       = "other"
	LanguageMetaTraider = "meta-traider"
)

// Changelog markers written when the caller does not supply one.
const (
	InitialChangelog    = "Initial version"
	CodeUpdateChangelog = "Code update"
)

// Parameter types.
const (
	ParameterTypeNumber  = "number"
	ParameterTypeString  = "string"
	ParameterTypeBoolean = "boolean"
	ParameterTypeSelect  = "select"
)

// Downloadable script package types, keyed by lower-cased extension.
const (
	FileTypePSF = "psf"
	FileTypeMQ5 = "mq5"
)

var (
	Languages      = []string{LanguageNelogica, LanguagePython, LanguageJS, LanguageOther, LanguageMetaTraider}
	ParameterTypes = []string{ParameterTypeNumber, ParameterTypeString, ParameterTypeBoolean, ParameterTypeSelect}
	FileTypes      = []string{FileTypePSF, FileTypeMQ5}
)

// Robot is the aggregate root: a trading script owned by a user.
type Robot struct {
	ID             uint                        `gorm:"primaryKey" json:"id"`
	UserID         uint                        `gorm:"not null;index;index:idx_robots_owner_active_lang,priority:1" json:"user_id"`
	Name           string                      `gorm:"size:150;not null;index" json:"name"`
	Description    *string                     `gorm:"type:text" json:"description"`
	Language       string                      `gorm:"size:20;not null;index;index:idx_robots_owner_active_lang,priority:3" json:"language"`
	Tags           datatypes.JSONSlice[string] `json:"tags"`
	Code           string                      `gorm:"type:text;not null" json:"code"`
	IsActive       bool                        `gorm:"not null;index:idx_robots_owner_active_lang,priority:2" json:"is_active"`
	Version        int                         `gorm:"not null" json:"version"`
	LastExecutedAt *time.Time                  `json:"last_executed_at"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
	DeletedAt      gorm.DeletedAt              `gorm:"index" json:"deleted_at,omitempty"`

	Owner      *User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	User       *UserSummary     `gorm:"-" json:"user,omitempty"`
	Parameters []RobotParameter `gorm:"foreignKey:RobotID;constraint:OnDelete:CASCADE" json:"parameters"`
	Images     []RobotImage     `gorm:"foreignKey:RobotID;constraint:OnDelete:CASCADE" json:"images"`
	Files      []RobotFile      `gorm:"foreignKey:RobotID;constraint:OnDelete:CASCADE" json:"files"`
	Versions   []RobotVersion   `gorm:"foreignKey:RobotID;constraint:OnDelete:CASCADE" json:"versions,omitempty"`
}

func (Robot) TableName() string { return "robots" }

// RobotParameter is one named input the robot's code consumes. Value,
// DefaultValue, Options and ValidationRules are opaque JSON documents.
type RobotParameter struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	RobotID         uint           `gorm:"not null;uniqueIndex:idx_robot_parameters_robot_key,priority:1;index:idx_robot_parameters_sort,priority:1" json:"robot_id"`
	Key             string         `gorm:"size:80;not null;uniqueIndex:idx_robot_parameters_robot_key,priority:2" json:"key"`
	Label           string         `gorm:"size:120;not null" json:"label"`
	Type            string         `gorm:"size:20;not null" json:"type"`
	Value           datatypes.JSON `gorm:"not null" json:"value"`
	DefaultValue    datatypes.JSON `json:"default_value"`
	Required        bool           `gorm:"not null" json:"required"`
	Options         datatypes.JSON `json:"options"`
	ValidationRules datatypes.JSON `json:"validation_rules"`
	Group           *string        `gorm:"column:group;size:255" json:"group"`
	SortOrder       int            `gorm:"not null;index:idx_robot_parameters_sort,priority:2" json:"sort_order"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (RobotParameter) TableName() string { return "robot_parameters" }

// RobotImage is a picture shown for a robot.
type RobotImage struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RobotID       uint      `gorm:"not null;index;index:idx_robot_images_sort,priority:1;index:idx_robot_images_primary,priority:1" json:"robot_id"`
	Title         *string   `gorm:"size:120" json:"title"`
	Caption       *string   `gorm:"size:255" json:"caption"`
	Disk          string    `gorm:"size:30;not null" json:"disk"`
	Path          string    `gorm:"size:500;not null" json:"path"`
	URL           *string   `gorm:"size:700" json:"url"`
	ThumbnailPath *string   `gorm:"size:500" json:"thumbnail_path"`
	MimeType      *string   `gorm:"size:100" json:"mime_type"`
	SizeBytes     *int64    `json:"size_bytes"`
	Width         *int      `json:"width"`
	Height        *int      `json:"height"`
	IsPrimary     bool      `gorm:"not null;index:idx_robot_images_primary,priority:2" json:"is_primary"`
	SortOrder     int       `gorm:"not null;index:idx_robot_images_sort,priority:2" json:"sort_order"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RobotFile is a downloadable attachment such as a script package.
type RobotFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RobotID   uint      `gorm:"not null;index;index:idx_robot_files_type,priority:1;index:idx_robot_files_sort,priority:1" json:"robot_id"`
	Name      *string   `gorm:"size:255" json:"name"`
	Disk      string    `gorm:"size:30;not null" json:"disk"`
	Path      string    `gorm:"size:500;not null" json:"path"`
	URL       *string   `gorm:"size:700" json:"url"`
	MimeType  *string   `gorm:"size:100" json:"mime_type"`
	FileType  *string   `gorm:"size:20;index:idx_robot_files_type,priority:2" json:"file_type"`
	SizeBytes *int64    `json:"size_bytes"`
	SortOrder int       `gorm:"not null;index:idx_robot_files_sort,priority:2" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RobotVersion is an immutable snapshot of a robot's code.
type RobotVersion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RobotID   uint      `gorm:"not null;uniqueIndex:idx_robot_versions_robot_version,priority:1;index:idx_robot_versions_current,priority:1" json:"robot_id"`
	Version   int       `gorm:"not null;uniqueIndex:idx_robot_versions_robot_version,priority:2" json:"version"`
	Code      string    `gorm:"type:text;not null" json:"code"`
	Changelog *string   `gorm:"type:text" json:"changelog"`
	IsCurrent bool      `gorm:"not null;index:idx_robot_versions_current,priority:2" json:"is_current"`
	CreatedBy *uint     `gorm:"index" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileTypeFor classifies an attachment by its lower-cased extension,
// returning nil when the extension is not a known script package.
func FileTypeFor(ext string) *string {
	for _, t := range FileTypes {
		if ext == t {
			v := t
			return &v
		}
	}
	return nil
}

// IsValidLanguage reports whether lang is one of Languages.
func IsValidLanguage(lang string) bool {
	return contains(Languages, lang)
}

// IsValidParameterType reports whether t is one of ParameterTypes.
func IsValidParameterType(t string) bool {
	return contains(ParameterTypes, t)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
