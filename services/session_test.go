package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionLogin(t *testing.T) {
	s := NewSession("admin@ksm.ac.id", "admin123")
	assert.False(t, s.IsAdmin())

	t.Run("wrong credentials stay anonymous", func(t *testing.T) {
		assert.False(t, s.Login("admin@ksm.ac.id", "wrong"))
		assert.False(t, s.Login("other@ksm.ac.id", "admin123"))
		assert.False(t, s.IsAdmin())
	})

	t.Run("correct credentials grant admin", func(t *testing.T) {
		assert.True(t, s.Login("admin@ksm.ac.id", "admin123"))
		assert.True(t, s.IsAdmin())
	})

	t.Run("logout drops the capability", func(t *testing.T) {
		s.Logout()
		assert.False(t, s.IsAdmin())
	})
}

func TestSessionVisitor(t *testing.T) {
	s := NewSession("a", "b")
	assert.Contains(t, s.VisitorID(), "visitor_")

	assert.True(t, s.MarkCounted(), "first call counts")
	assert.False(t, s.MarkCounted(), "later calls do not")

	other := NewSession("a", "b")
	assert.NotEqual(t, s.VisitorID(), other.VisitorID())
	assert.True(t, other.MarkCounted(), "sessions count independently")
}
