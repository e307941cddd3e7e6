package errorx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_ErrorString(t *testing.T) {
	e := New(KindForbidden, "error.insufficient_rank")
	assert.Equal(t, "forbidden: error.insufficient_rank", e.Error())
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("disk on fire")
	e := Internal(cause)
	assert.Equal(t, KindInternal, e.Kind)
	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "disk on fire")
}

func TestWithDetail(t *testing.T) {
	e := InvalidData("error.validation").WithDetail([]string{"пропущено поле 'nickname'"})
	assert.Equal(t, []string{"пропущено поле 'nickname'"}, e.Detail)
}

func TestAs_ThroughWrapping(t *testing.T) {
	e := Unauthorized()
	wrapped := fmt.Errorf("dispatch: %w", e)

	var domain *Error
	assert.True(t, errors.As(wrapped, &domain))
	assert.Equal(t, KindUnauthorized, domain.Kind)
}
