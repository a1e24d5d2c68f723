package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"robot-manager/models"
	"robot-manager/utils"

	"github.com/labstack/echo/v4"
)

// Multipart part names for robot writes. The JSON document travels in
// the "data" field; uploads may use either the bare or the [] form.
const (
	dataField   = "data"
	imagesField = "images"
	filesField  = "files"
)

// decodeJSONBody decodes the request body into target. An empty body
// decodes to the zero value.
func decodeJSONBody(c echo.Context, target interface{}) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return utils.NewBadRequestError("Failed to read request body", err)
	}
	return decodeJSON(body, target)
}

func decodeJSON(body []byte, target interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	err := json.Unmarshal(body, target)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return utils.NewValidationError(map[string]string{
			field: fmt.Sprintf("The %s field must be of type %s.", field, typeErr.Type.String()),
		})
	}
	return utils.NewBadRequestError("Invalid request body", err)
}

// bindRobotPayload decodes a JSON or multipart robot write into target
// and returns the uploaded images and files.
func bindRobotPayload(c echo.Context, target interface{}) (images, files []models.Upload, err error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return nil, nil, decodeJSONBody(c, target)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, utils.NewBadRequestError("Invalid multipart body", err)
	}

	if data := form.Value[dataField]; len(data) > 0 {
		if err := decodeJSON([]byte(data[0]), target); err != nil {
			return nil, nil, err
		}
	}

	images, err = readUploads(form, imagesField)
	if err != nil {
		return nil, nil, err
	}
	files, err = readUploads(form, filesField)
	if err != nil {
		return nil, nil, err
	}
	return images, files, nil
}

func readUploads(form *multipart.Form, field string) ([]models.Upload, error) {
	bare, bracketed := form.File[field], form.File[field+"[]"]
	headers := make([]*multipart.FileHeader, 0, len(bare)+len(bracketed))
	headers = append(headers, bare...)
	headers = append(headers, bracketed...)
	uploads := make([]models.Upload, 0, len(headers))
	for _, fh := range headers {
		upload, err := readUpload(fh)
		if err != nil {
			return nil, utils.NewBadRequestError(fmt.Sprintf("Failed to read upload %s", fh.Filename), err)
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

func readUpload(fh *multipart.FileHeader) (models.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.Upload{}, err
	}
	return models.Upload{
		Filename: fh.Filename,
		MimeType: fh.Header.Get(echo.HeaderContentType),
		Data:     data,
	}, nil
}
