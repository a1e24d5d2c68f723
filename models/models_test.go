package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTypeFor(t *testing.T) {
	psf := FileTypeFor("psf")
	require.NotNil(t, psf)
	assert.Equal(t, FileTypePSF, *psf)
	assert.NotNil(t, FileTypeFor("mq5"))
	assert.Nil(t, FileTypeFor("PSF"))
	assert.Nil(t, FileTypeFor("zip"))
}

func TestNewPageMeta(t *testing.T) {
	assert.Equal(t, PageMeta{CurrentPage: 1, LastPage: 1, PerPage: 15, Total: 0}, NewPageMeta(1, 15, 0))
	assert.Equal(t, 3, NewPageMeta(2, 2, 5).LastPage)
	assert.Equal(t, 2, NewPageMeta(1, 10, 20).LastPage)
}

func TestJSONDocument(t *testing.T) {
	assert.Nil(t, JSONDocument(nil))
	assert.Nil(t, JSONDocument(json.RawMessage(" null ")))
	assert.Equal(t, `{"min":1}`, string(JSONDocument(json.RawMessage(` {"min":1} `))))
	assert.Equal(t, `false`, string(JSONDocument(json.RawMessage(`false`))))
}

func TestParameterInputToModel(t *testing.T) {
	var in ParameterInput
	require.NoError(t, json.Unmarshal([]byte(`{"key":"period","label":"Period","type":"number","value":14}`), &in))

	param := in.ToModel(9)
	assert.Equal(t, uint(9), param.RobotID)
	assert.Equal(t, "14", string(param.Value))
	assert.False(t, param.Required)
	assert.Zero(t, param.SortOrder)
	assert.Nil(t, param.Options)

	_, ok := in.ExistingID()
	assert.False(t, ok)

	zero := uint(0)
	in.ID = &zero
	_, ok = in.ExistingID()
	assert.False(t, ok)

	id := uint(4)
	in.ID = &id
	got, ok := in.ExistingID()
	assert.True(t, ok)
	assert.Equal(t, uint(4), got)

	fields := in.UpdateFields()
	assert.Equal(t, "period", fields["key"])
	assert.NotContains(t, fields, "robot_id")
}

func TestAt(t *testing.T) {
	title := "Chart"
	values := []*string{&title, nil}
	assert.Equal(t, &title, At(values, 0))
	assert.Nil(t, At(values, 1))
	assert.Nil(t, At(values, 2))
	assert.Nil(t, At(nil, 0))
}

func TestCallerCanAccess(t *testing.T) {
	owner := Caller{UserID: 1}
	admin := Caller{UserID: 2, IsSuperAdmin: true}

	assert.True(t, owner.CanAccess(1))
	assert.False(t, owner.CanAccess(3))
	assert.True(t, admin.CanAccess(3))
}

func TestUserPasswordNeverSerialized(t *testing.T) {
	body, err := json.Marshal(User{ID: 1, Name: "Ana", Email: "ana@example.test", Password: "hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(body), "hash")
	assert.Equal(t, &UserSummary{ID: 1, Name: "Ana", Email: "ana@example.test"}, User{ID: 1, Name: "Ana", Email: "ana@example.test"}.Summary())
}

func TestUpdateRequestDescriptionPresence(t *testing.T) {
	var omitted UpdateRobotRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x"}`), &omitted))
	assert.False(t, omitted.Description.Set)

	var cleared UpdateRobotRequest
	require.NoError(t, json.Unmarshal([]byte(`{"description":null}`), &cleared))
	assert.True(t, cleared.Description.Set)
	assert.Nil(t, cleared.Description.Value)

	var written UpdateRobotRequest
	require.NoError(t, json.Unmarshal([]byte(`{"description":"new text"}`), &written))
	assert.True(t, written.Description.Set)
	require.NotNil(t, written.Description.Value)
	assert.Equal(t, "new text", *written.Description.Value)

	var wrong UpdateRobotRequest
	assert.Error(t, json.Unmarshal([]byte(`{"description":12}`), &wrong))
}
