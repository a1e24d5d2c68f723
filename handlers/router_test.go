package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"robot-manager/internal/testdb"
	"robot-manager/logging"
	"robot-manager/metrics"
	"robot-manager/models"
	"robot-manager/mqtt"
	"robot-manager/redis"
	"robot-manager/services"
	"robot-manager/storage"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	e      *echo.Echo
	auth   *services.AuthService
	owner  *models.User
	other  *models.User
	token  string
	metric *metrics.Metrics
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db := testdb.Open(t)
	root := t.TempDir()
	disk, err := storage.NewLocalDisk(storage.DiskPublic, root, "/storage")
	require.NoError(t, err)
	store, err := storage.NewManager("http://app.test", storage.DiskPublic, logging.Discard(), disk)
	require.NoError(t, err)

	auth, err := services.NewAuthService(db, redis.NoopClient{}, "handler-secret", time.Hour, logging.Discard())
	require.NoError(t, err)
	m := metrics.New()
	robots := services.NewRobotService(db, store, redis.NoopClient{}, mqtt.NoopPublisher{}, m, 1<<20, logging.Discard())

	f := &apiFixture{
		auth:   auth,
		owner:  testdb.CreateUser(t, db, "Owner", "5511911110000", "secret", false),
		other:  testdb.CreateUser(t, db, "Other", "5511922220000", "secret", false),
		metric: m,
	}
	f.token, err = auth.IssueToken(f.owner)
	require.NoError(t, err)

	f.e = NewRouter(RouterOptions{
		Auth:           auth,
		Robots:         robots,
		Metrics:        m,
		Logger:         logging.Discard(),
		PublicRoot:     root,
		PublicURL:      "/storage",
		BodyLimit:      "8M",
		DefaultPerPage: 15,
		MaxPerPage:     100,
	})
	return f
}

func (f *apiFixture) do(t *testing.T, method, target, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) doJSON(t *testing.T, method, target string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return f.do(t, method, target, f.token, body, echo.MIMEApplicationJSON)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func robotPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":     "EMA Cross",
		"language": "python",
		"code":     "v1",
		"tags":     []string{"trend"},
		"parameters": []map[string]interface{}{
			{"key": "fast", "label": "Fast", "type": "number", "value": 9},
			{"key": "slow", "label": "Slow", "type": "number", "value": 21},
		},
	}
}

func createRobot(t *testing.T, f *apiFixture) uint {
	t.Helper()
	rec := f.doJSON(t, http.MethodPost, "/robots", robotPayload())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]interface{})
	return uint(data["id"].(float64))
}

func robotURL(id uint, suffix string) string {
	return "/robots/" + strconv.FormatUint(uint64(id), 10) + suffix
}

func TestHealthCheck(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "robot-manager", body["data"].(map[string]interface{})["service"])
}

func TestRobotRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/robots", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthenticated", decode(t, rec)["message"])

	rec = f.do(t, http.MethodGet, "/robots", "garbage", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginMeAndLogout(t *testing.T) {
	f := newAPIFixture(t)

	body, _ := json.Marshal(map[string]string{"phone": "5511911110000", "password": "secret"})
	rec := f.do(t, http.MethodPost, "/auth/login", "", body, echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode(t, rec)
	token := login["token"].(string)
	user := login["user"].(map[string]interface{})
	assert.Equal(t, "Owner", user["name"])
	assert.NotContains(t, user, "password")

	rec = f.do(t, http.MethodGet, "/auth/me", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Owner", decode(t, rec)["user"].(map[string]interface{})["name"])

	rec = f.do(t, http.MethodPost, "/auth/logout", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ = json.Marshal(map[string]string{"phone": "5511911110000", "password": "nope"})
	rec = f.do(t, http.MethodPost, "/auth/login", "", body, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRobotCRUD(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.doJSON(t, http.MethodPost, "/robots", robotPayload())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, "Robot created successfully", created["message"])
	data := created["data"].(map[string]interface{})
	id := uint(data["id"].(float64))
	assert.EqualValues(t, 1, data["version"])
	assert.Len(t, data["parameters"], 2)
	assert.Equal(t, "Owner", data["user"].(map[string]interface{})["name"])

	rec = f.doJSON(t, http.MethodPut, robotURL(id, ""), map[string]interface{}{
		"code":           "v2",
		"create_version": true,
		"changelog":      "faster",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode(t, rec)
	assert.Equal(t, "Robot updated successfully", updated["message"])
	assert.EqualValues(t, 2, updated["data"].(map[string]interface{})["version"])

	rec = f.do(t, http.MethodGet, robotURL(id, ""), f.token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	shown := decode(t, rec)["data"].(map[string]interface{})
	assert.Len(t, shown["versions"], 2)

	rec = f.do(t, http.MethodGet, "/robots?language=python&is_active=true&search=ema&per_page=500", f.token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)
	assert.Len(t, list["data"], 1)
	meta := list["meta"].(map[string]interface{})
	assert.EqualValues(t, 100, meta["per_page"])
	assert.EqualValues(t, 1, meta["total"])

	rec = f.do(t, http.MethodDelete, robotURL(id, ""), f.token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Robot deleted successfully", decode(t, rec)["message"])

	rec = f.do(t, http.MethodGet, robotURL(id, ""), f.token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Robot not found", decode(t, rec)["message"])
}

func TestPatchIsAnUpdate(t *testing.T) {
	f := newAPIFixture(t)
	id := createRobot(t, f)

	rec := f.doJSON(t, http.MethodPatch, robotURL(id, ""), map[string]interface{}{"name": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Renamed", decode(t, rec)["data"].(map[string]interface{})["name"])

	rec = f.doJSON(t, http.MethodPatch, robotURL(id, ""), map[string]interface{}{"description": "Short lived"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Short lived", decode(t, rec)["data"].(map[string]interface{})["description"])

	rec = f.doJSON(t, http.MethodPatch, robotURL(id, ""), map[string]interface{}{"description": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Nil(t, data["description"])
	assert.Equal(t, "Renamed", data["name"])
}

func TestCreateValidationErrors(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.doJSON(t, http.MethodPost, "/robots", map[string]interface{}{"language": "fortran"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "The given data was invalid.", body["message"])
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "language")
	assert.Contains(t, errs, "code")

	rec = f.do(t, http.MethodPost, "/robots", f.token, []byte(`{"name": 42}`), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode(t, rec)["errors"], "name")

	rec = f.do(t, http.MethodPost, "/robots", f.token, []byte(`{"name":`), echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOtherUsersRobotIsNotFound(t *testing.T) {
	f := newAPIFixture(t)
	id := createRobot(t, f)

	otherToken, err := f.auth.IssueToken(f.other)
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, robotURL(id, ""), otherToken, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodDelete, robotURL(id, ""), otherToken, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/robots/abc", f.token, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMultipartCreateAndDownload(t *testing.T) {
	f := newAPIFixture(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	data, _ := json.Marshal(map[string]interface{}{
		"name":         "With files",
		"language":     "meta-traider",
		"code":         "OnTick()",
		"image_titles": []string{"Equity"},
		"file_names":   []string{"EA Package.mq5"},
	})
	require.NoError(t, w.WriteField("data", string(data)))

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	part, err := w.CreateFormFile("images[]", "equity.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, img))

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="files"; filename="ea.mq5"`)
	header.Set("Content-Type", "application/octet-stream")
	part, err = w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("EA-BYTES"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rec := f.do(t, http.MethodPost, "/robots", f.token, buf.Bytes(), w.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	robot := decode(t, rec)["data"].(map[string]interface{})
	id := uint(robot["id"].(float64))

	images := robot["images"].([]interface{})
	require.Len(t, images, 1)
	first := images[0].(map[string]interface{})
	assert.Equal(t, "Equity", first["title"])
	assert.Equal(t, true, first["is_primary"])
	assert.EqualValues(t, 3, first["width"])
	imageURL := first["url"].(string)
	require.True(t, strings.HasPrefix(imageURL, "http://app.test/storage/"), imageURL)

	rec = f.do(t, http.MethodGet, strings.TrimPrefix(imageURL, "http://app.test"), "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code, "public disk is served")

	files := robot["files"].([]interface{})
	require.Len(t, files, 1)
	file := files[0].(map[string]interface{})
	assert.Equal(t, "mq5", file["file_type"])
	fileID := uint(file["id"].(float64))

	rec = f.do(t, http.MethodGet, robotURL(id, "/files/"+strconv.FormatUint(uint64(fileID), 10)+"/download"), f.token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "EA-BYTES", rec.Body.String())
	assert.Equal(t, "application/octet-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `filename="EA Package.mq5"`)

	rec = f.do(t, http.MethodGet, robotURL(id, "/files/9999/download"), f.token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpointRecordsRoutes(t *testing.T) {
	f := newAPIFixture(t)
	createRobot(t, f)

	rec := f.do(t, http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `http_request_duration_seconds_count{method="POST",route="/robots",status="201"} 1`)
	assert.Contains(t, body, `robot_operations_total{operation="create",result="success"} 1`)
}
