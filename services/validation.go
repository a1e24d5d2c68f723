package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"robot-manager/models"
	"robot-manager/storage"
)

// Field limits, in characters.
const (
	maxNameLen      = 150
	maxLanguageLen  = 20
	maxParamKeyLen  = 80
	maxParamLblLen  = 120
	maxImgTitleLen  = 120
	maxImgCaptLen   = 255
	maxFileNameLen  = 255
	maxParamTypeLen = 20
)

// ImageMimeTypes are the accepted image content types.
var ImageMimeTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// fieldErrors keeps the first message reported for each field.
type fieldErrors map[string]string

func (f fieldErrors) add(field, format string, args ...interface{}) {
	if _, exists := f[field]; !exists {
		f[field] = fmt.Sprintf(format, args...)
	}
}

func validateCreate(req *models.CreateRobotRequest, maxUpload int64) map[string]string {
	errs := fieldErrors{}

	checkName(errs, req.Name)
	checkLanguage(errs, req.Language)
	if req.Code == "" {
		errs.add("code", "The code field is required.")
	}
	checkParameters(errs, req.Parameters)
	checkAttachments(errs, req.Images, req.ImageTitles, req.ImageCaptions, req.Files, req.FileNames, maxUpload)

	return errs
}

func validateUpdate(req *models.UpdateRobotRequest, maxUpload int64) map[string]string {
	errs := fieldErrors{}

	if req.Name != nil {
		checkName(errs, *req.Name)
	}
	if req.Language != nil {
		checkLanguage(errs, *req.Language)
	}
	if req.Code != nil && *req.Code == "" {
		errs.add("code", "The code field is required.")
	}
	if req.Parameters != nil {
		checkParameters(errs, *req.Parameters)
	}
	checkAttachments(errs, req.Images, req.ImageTitles, req.ImageCaptions, req.Files, req.FileNames, maxUpload)

	return errs
}

func checkName(errs fieldErrors, name string) {
	switch {
	case strings.TrimSpace(name) == "":
		errs.add("name", "The name field is required.")
	case utf8.RuneCountInString(name) > maxNameLen:
		errs.add("name", "The name may not be greater than %d characters.", maxNameLen)
	}
}

func checkLanguage(errs fieldErrors, language string) {
	switch {
	case language == "":
		errs.add("language", "The language field is required.")
	case utf8.RuneCountInString(language) > maxLanguageLen || !models.IsValidLanguage(language):
		errs.add("language", "The language must be one of: %s.", strings.Join(models.Languages, ", "))
	}
}

func checkParameters(errs fieldErrors, params []models.ParameterInput) {
	seen := make(map[string]int, len(params))
	for i, p := range params {
		prefix := fmt.Sprintf("parameters.%d.", i)

		switch {
		case strings.TrimSpace(p.Key) == "":
			errs.add(prefix+"key", "The key field is required.")
		case utf8.RuneCountInString(p.Key) > maxParamKeyLen:
			errs.add(prefix+"key", "The key may not be greater than %d characters.", maxParamKeyLen)
		default:
			if first, dup := seen[p.Key]; dup {
				errs.add(prefix+"key", "The key %q is already used by parameters.%d.", p.Key, first)
			} else {
				seen[p.Key] = i
			}
		}

		switch {
		case strings.TrimSpace(p.Label) == "":
			errs.add(prefix+"label", "The label field is required.")
		case utf8.RuneCountInString(p.Label) > maxParamLblLen:
			errs.add(prefix+"label", "The label may not be greater than %d characters.", maxParamLblLen)
		}

		switch {
		case p.Type == "":
			errs.add(prefix+"type", "The type field is required.")
		case utf8.RuneCountInString(p.Type) > maxParamTypeLen || !models.IsValidParameterType(p.Type):
			errs.add(prefix+"type", "The type must be one of: %s.", strings.Join(models.ParameterTypes, ", "))
		}

		if isBlankJSON(p.Value) {
			errs.add(prefix+"value", "The value field is required.")
		}
		if !models.IsJSONNull(p.Options) && !isJSONArray(p.Options) {
			errs.add(prefix+"options", "The options must be an array.")
		}
		if !models.IsJSONNull(p.ValidationRules) && !isJSONArray(p.ValidationRules) && !isJSONObject(p.ValidationRules) {
			errs.add(prefix+"validation_rules", "The validation rules must be an array.")
		}
	}
}

func checkAttachments(errs fieldErrors, images []models.Upload, titles, captions []*string, files []models.Upload, names []*string, maxUpload int64) {
	for i, img := range images {
		field := fmt.Sprintf("images.%d", i)
		if !isAllowedImage(ImageMimeType(img)) {
			errs.add(field, "The file must be an image of type: jpeg, png, jpg, gif, webp.")
		}
		if maxUpload > 0 && img.Size() > maxUpload {
			errs.add(field, "The image may not be greater than %d kilobytes.", maxUpload/1024)
		}
	}
	checkLengths(errs, "image_titles", titles, maxImgTitleLen)
	checkLengths(errs, "image_captions", captions, maxImgCaptLen)

	for i, f := range files {
		field := fmt.Sprintf("files.%d", i)
		if models.FileTypeFor(storage.Extension(f.Filename)) == nil {
			errs.add(field, "The file must be of type .psf or .mq5.")
		}
		if maxUpload > 0 && f.Size() > maxUpload {
			errs.add(field, "The file may not be greater than %d kilobytes.", maxUpload/1024)
		}
	}
	checkLengths(errs, "file_names", names, maxFileNameLen)
}

func checkLengths(errs fieldErrors, field string, values []*string, max int) {
	for i, v := range values {
		if v != nil && utf8.RuneCountInString(*v) > max {
			errs.add(fmt.Sprintf("%s.%d", field, i), "The value may not be greater than %d characters.", max)
		}
	}
}

// ImageMimeType sniffs the content type of an uploaded image.
func ImageMimeType(u models.Upload) string {
	if len(u.Data) == 0 {
		return ""
	}
	return http.DetectContentType(u.Data)
}

// FileMimeType prefers the client-declared type and falls back to sniffing.
func FileMimeType(u models.Upload) string {
	if u.MimeType != "" {
		return u.MimeType
	}
	if len(u.Data) == 0 {
		return ""
	}
	return http.DetectContentType(u.Data)
}

func isAllowedImage(mimeType string) bool {
	for _, allowed := range ImageMimeTypes {
		if mimeType == allowed {
			return true
		}
	}
	return false
}

// isBlankJSON reports whether raw is missing, null, a whitespace-only
// string, or an empty array or object.
func isBlankJSON(raw json.RawMessage) bool {
	if models.IsJSONNull(raw) {
		return true
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	}
	return false
}

func isJSONArray(raw json.RawMessage) bool {
	var v []json.RawMessage
	return json.Unmarshal(raw, &v) == nil
}

func isJSONObject(raw json.RawMessage) bool {
	var v map[string]json.RawMessage
	return json.Unmarshal(raw, &v) == nil
}
