package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New("swiftremit", "test", Options{Writer: &buf})
	logger.Info("invocation committed", "op", "confirm_payout", MaskField("caller", "remit1abc"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "invocation committed", line["message"])
	require.Equal(t, "swiftremit", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, "confirm_payout", line["op"])
	require.Equal(t, RedactedValue, line["caller"])
	require.Contains(t, line, "timestamp")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New("swiftremit", "", Options{Writer: &buf, Level: ParseLevel("warn")})
	logger.Info("dropped")
	require.Zero(t, buf.Len())
	logger.Warn("kept")
	require.NotZero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestMaskFieldAllowlist(t *testing.T) {
	require.Equal(t, "remit.settled", MaskField("op", "remit.settled").Value.String())
	require.Equal(t, RedactedValue, MaskField("recipient", "remit1xyz").Value.String())
	require.Equal(t, " ", MaskField("recipient", " ").Value.String())
	require.Equal(t, "USD", MaskField("Currency", "USD").Value.String())
}

func TestAddressField(t *testing.T) {
	attr := AddressField("caller", "remit1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc5wxyz")
	require.Equal(t, "caller", attr.Key)
	require.Equal(t, "remit1…wxyz", attr.Value.String())
	require.Equal(t, RedactedValue, AddressField("caller", "0xdeadbeef").Value.String())
	require.Equal(t, RedactedValue, AddressField("caller", "remit1ab").Value.String())
	require.Equal(t, "", AddressField("caller", "").Value.String())
}
