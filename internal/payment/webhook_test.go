package payment

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func signedHeader(t *testing.T, payload []byte, ts time.Time) string {
	t.Helper()
	sig := ComputeSignature(ts.Unix(), payload, testSecret)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), sig)
}

func TestParseEvent_ValidSignature(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_123", "payment_status": "paid", "metadata": {"user_id": "4"}}}
	}`)

	event, err := ParseEvent(payload, signedHeader(t, payload, time.Now()), testSecret)
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, event.Type)
	assert.Equal(t, "cs_123", event.Data.Object.ID)
	assert.Equal(t, "4", event.Data.Object.Metadata["user_id"])
}

func TestParseEvent_WrongSecret(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "type": "checkout.session.completed"}`)
	ts := time.Now()
	header := fmt.Sprintf("t=%d,v1=%s", ts.Unix(), ComputeSignature(ts.Unix(), payload, "whsec_other"))

	_, err := ParseEvent(payload, header, testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseEvent_TamperedPayload(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "type": "checkout.session.completed"}`)
	header := signedHeader(t, payload, time.Now())

	tampered := []byte(`{"id": "evt_1", "type": "checkout.session.expired"}`)
	_, err := ParseEvent(tampered, header, testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseEvent_StaleTimestamp(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "type": "checkout.session.completed"}`)
	header := signedHeader(t, payload, time.Now().Add(-10*time.Minute))

	_, err := ParseEvent(payload, header, testSecret)
	assert.ErrorIs(t, err, ErrStaleTimestamp)
}

func TestParseEvent_FutureTimestamp(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "type": "checkout.session.completed"}`)
	header := signedHeader(t, payload, time.Now().Add(10*time.Minute))

	_, err := ParseEvent(payload, header, testSecret)
	assert.ErrorIs(t, err, ErrStaleTimestamp)
}

func TestParseEvent_MalformedHeader(t *testing.T) {
	payload := []byte(`{"id": "evt_1"}`)

	for _, header := range []string{"", "t=abc,v1=deadbeef", "v1=deadbeef", fmt.Sprintf("t=%d", time.Now().Unix())} {
		_, err := ParseEvent(payload, header, testSecret)
		assert.ErrorIs(t, err, ErrInvalidSignature, "header %q", header)
	}
}

func TestParseEvent_SecondSignatureAccepted(t *testing.T) {
	// Providers send multiple v1 entries during secret rotation.
	payload := []byte(`{"id": "evt_1", "type": "checkout.session.completed"}`)
	ts := time.Now().Unix()
	good := ComputeSignature(ts, payload, testSecret)
	header := fmt.Sprintf("t=%d,v1=%s,v1=%s", ts, "0000", good)

	event, err := ParseEvent(payload, header, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
}
