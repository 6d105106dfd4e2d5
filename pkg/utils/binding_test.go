package utils

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (s *signup) Trim() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
}

func bind(t *testing.T, body string) (signup, error) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var s signup
	err := BindTrimmedJSON(c, &s)
	return s, err
}

func TestBindTrimmedJSON(t *testing.T) {
	s, err := bind(t, `{"name":" Ann ","email":" ann@uni.edu ","password":"secret1"}`)
	require.NoError(t, err)
	assert.Equal(t, "Ann", s.Name)
	assert.Equal(t, "ann@uni.edu", s.Email)

	_, err = bind(t, `{"name":"   ","email":"ann@uni.edu","password":"secret1"}`)
	field, tag, ok := FirstInvalid(err)
	require.True(t, ok)
	assert.Equal(t, "Name", field)
	assert.Equal(t, "required", tag)
}

func TestFirstInvalid(t *testing.T) {
	_, err := bind(t, `{"name":"Ann","email":"nope","password":"123"}`)
	field, tag, ok := FirstInvalid(err)
	require.True(t, ok)
	assert.Equal(t, "Email", field)
	assert.Equal(t, "email", tag)

	_, err = bind(t, `{"name":"Ann","email":"ann@uni.edu","password":"123"}`)
	field, tag, _ = FirstInvalid(err)
	assert.Equal(t, "Password", field)
	assert.Equal(t, "min", tag)

	_, err = bind(t, `{"name":`)
	_, _, ok = FirstInvalid(err)
	assert.False(t, ok)
}
