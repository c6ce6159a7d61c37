package toolerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Error_Type(t *testing.T) {
	t.Run("Should build from error with code and details", func(t *testing.T) {
		e := New(errors.New("boom"), "E1", map[string]any{"k": "v"})
		assert.Equal(t, "boom", e.Error())
		m := e.AsMap()
		assert.Equal(t, "boom", m["message"])
		assert.Equal(t, "E1", m["code"])
		assert.Equal(t, map[string]any{"k": "v"}, m["details"])
	})

	t.Run("Should build from nil error and handle empty/nil cases", func(t *testing.T) {
		e := New(nil, "", nil)
		assert.Equal(t, "unknown error", e.Error())
		var enil *Error
		assert.Equal(t, "", enil.Error())
		assert.Nil(t, enil.AsMap())
		assert.Nil(t, (&Error{}).AsMap())
	})

	t.Run("Should format a message with Newf and carry no cause", func(t *testing.T) {
		e := Newf(CodeFlagCollision, "flag %q already bound", "-x")
		assert.Equal(t, `flag "-x" already bound`, e.Error())
		assert.Equal(t, CodeFlagCollision, e.Code)
		assert.Nil(t, e.Unwrap())
	})

	t.Run("Should unwrap to the underlying cause", func(t *testing.T) {
		cause := errors.New("root cause")
		e := New(cause, "E2", nil)
		assert.ErrorIs(t, e, cause)
	})
}
