package apperrors

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Run("TestError", func(t *testing.T) {
		ErrBaseErr := New("base error")
		assert.Equal(t, "base error", ErrBaseErr.Error())
		assert.Equal(t, "msg", ErrBaseErr.New("msg").Error())
		assert.ErrorIs(t, ErrBaseErr, ErrBaseErr)

		ErrFirstLevel := ErrBaseErr.New("first level")
		assert.Equal(t, "first level", ErrFirstLevel.Error())
		assert.ErrorIs(t, ErrFirstLevel, ErrBaseErr)

		ErrAnotherErr := New("another error")
		ErrWrappedErr := ErrFirstLevel.Err(ErrAnotherErr)
		assert.Equal(t, "first level", ErrWrappedErr.Error())
		assert.ErrorIs(t, ErrWrappedErr, ErrBaseErr)
		assert.ErrorIs(t, ErrWrappedErr, ErrAnotherErr)

		err := errors.New("error")
		ErrWrappedErr = ErrFirstLevel.Err(err)
		assert.Equal(t, "first level", ErrWrappedErr.Error())
		assert.ErrorIs(t, ErrWrappedErr, ErrBaseErr)
		assert.ErrorIs(t, ErrWrappedErr, err)

		ErrWrappedErr = ErrFirstLevel.MsgErr("msg", err)
		assert.Equal(t, "msg", ErrWrappedErr.Error())
		assert.ErrorIs(t, ErrWrappedErr, ErrBaseErr)
		assert.ErrorIs(t, ErrWrappedErr, err)
	})

	t.Run("TestStatusCode", func(t *testing.T) {
		ErrBase := New("entity error").SetStatusCode(http.StatusInternalServerError)
		assert.Equal(t, http.StatusInternalServerError, ErrBase.StatusCode())

		// derived errors inherit the status code unless overridden
		ErrDerived := ErrBase.New("not found")
		assert.Equal(t, http.StatusInternalServerError, ErrDerived.StatusCode())

		ErrOverride := ErrBase.New("not found").SetStatusCode(http.StatusNotFound)
		assert.Equal(t, http.StatusNotFound, ErrOverride.StatusCode())
		assert.ErrorIs(t, ErrOverride, ErrBase)
	})

	t.Run("TestExpandError", func(t *testing.T) {
		ErrBase := New("validation failed")
		wrapped := ErrBase.New("bad document").Err(errors.New("title is required"), errors.New("owner is required"))
		assert.Equal(t, "bad document", wrapped.ErrorAll())

		wrapped = wrapped.SetExpandError(true)
		assert.Equal(t, "bad document: title is required;owner is required", wrapped.ErrorAll())
	})

	t.Run("TestPrefixSuffix", func(t *testing.T) {
		err := New("load failed").Prefix("seed")
		assert.Equal(t, "seed: load failed", err.Error())

		err = New("load failed").Suffix("products.yaml")
		assert.Equal(t, "load failed: products.yaml", err.Error())
	})
}
