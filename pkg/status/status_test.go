package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOKIsOnlySuccess(t *testing.T) {
	assert.True(t, OKStatus.Ok())
	assert.False(t, New(Unknown, "").Ok())
}

func TestUpdateKeepsFirstError(t *testing.T) {
	err1 := New(ParserFailure, "bad element")
	err2 := New(FileFailure, "disk gone")

	assert.Equal(t, err1, OKStatus.Update(err1))
	assert.Equal(t, err1, err1.Update(err2))
	assert.Equal(t, OKStatus, OKStatus.Update(OKStatus))
}

func TestErrorStringIncludesMessage(t *testing.T) {
	s := New(TimeOut, "waited 5s")
	assert.Equal(t, "TIME_OUT: waited 5s", s.Error())

	s2 := New(Stopped, "")
	assert.Equal(t, "STOPPED", s2.Error())
}

func TestFromError(t *testing.T) {
	assert.Equal(t, OKStatus, FromError(nil))

	original := New(ServerError, "boom")
	assert.Equal(t, original, FromError(original))
}
