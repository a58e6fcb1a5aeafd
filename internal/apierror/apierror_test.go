package apierror

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(KindInvalidInput, "bad shape")
	assert.Equal(t, KindInvalidInput, err.Kind)
	assert.Equal(t, "bad shape", err.Detail)
	assert.Equal(t, "invalid_input: bad shape", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(KindNotFound, "%s not found", "box")
	assert.Equal(t, "box not found", err.Detail)
}

func TestWithField(t *testing.T) {
	err := New(KindConflict, "email taken").WithField("email", "a@b.com")
	assert.Equal(t, "a@b.com", err.Fields["email"])

	err.WithField("second", "value")
	assert.Len(t, err.Fields, 2)
}

func TestNotFound(t *testing.T) {
	err := NotFound("item")
	assert.Equal(t, KindNotFound, err.Kind)
	assert.Equal(t, "item not found", err.Detail)
}

func TestForbidden(t *testing.T) {
	err := Forbidden("not a member")
	assert.Equal(t, KindForbidden, err.Kind)
	assert.Equal(t, "not a member", err.Detail)
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("delta must be nonzero")
	assert.Equal(t, KindInvalidInput, err.Kind)
}
