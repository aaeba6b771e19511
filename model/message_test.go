package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeMessageAcceptsInboundTypes(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"type":"note_hit","payload":{"note_id":3}}`))

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(MsgNoteHit, msg.Type)
	assert.JSONEq(`{"note_id":3}`, string(msg.Payload))
}

func TestDecodeMessageRejectsOutboundAndUnknownTypes(t *testing.T) {
	assert := assert.New(t)
	for _, frame := range []string{
		`{"type":"score_update"}`,
		`{"type":"problem_start"}`,
		`{"type":"bogus"}`,
		`{"type":""}`,
		`{}`,
		`not json`,
	} {
		_, err := DecodeMessage([]byte(frame))
		assert.Error(err, frame)
	}
}
