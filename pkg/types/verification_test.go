package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationExtraRoundTrip(t *testing.T) {
	jk := Perempuan
	domisili := "kontrak"
	cleared := ""
	extra := VerificationExtra{
		JenisKelamin:        &jk,
		StatusDomisili:      &domisili,
		KeluargaID:          &cleared,
		IsAssignmentRequest: true,
	}

	value, err := extra.Value()
	require.NoError(t, err)
	raw, ok := value.([]byte)
	require.True(t, ok)

	for name, src := range map[string]any{"bytes": raw, "string": string(raw)} {
		t.Run(name, func(t *testing.T) {
			var got VerificationExtra
			require.NoError(t, got.Scan(src))

			require.NotNil(t, got.JenisKelamin)
			assert.Equal(t, Perempuan, *got.JenisKelamin)
			require.NotNil(t, got.StatusDomisili)
			assert.Equal(t, "kontrak", *got.StatusDomisili)
			assert.Nil(t, got.StatusHidup)
			require.NotNil(t, got.KeluargaID, "a blank keluarga id means clear, not absent")
			assert.Empty(t, *got.KeluargaID)
			assert.True(t, got.IsAssignmentRequest)
			assert.False(t, got.IsNewRegistration)
		})
	}
}

func TestVerificationExtraScanEmpty(t *testing.T) {
	for name, src := range map[string]any{"nil": nil, "empty bytes": []byte{}, "empty string": ""} {
		t.Run(name, func(t *testing.T) {
			hidup := "hidup"
			got := VerificationExtra{StatusHidup: &hidup, IsNewRegistration: true}
			require.NoError(t, got.Scan(src))
			assert.Equal(t, VerificationExtra{}, got)
		})
	}
}

func TestVerificationExtraScanResetsFields(t *testing.T) {
	hidup := "hidup"
	got := VerificationExtra{StatusHidup: &hidup, IsNewRegistration: true}
	require.NoError(t, got.Scan([]byte(`{"isAssignmentRequest":true}`)))
	assert.Nil(t, got.StatusHidup)
	assert.False(t, got.IsNewRegistration)
	assert.True(t, got.IsAssignmentRequest)
}

func TestVerificationExtraScanRejectsOtherTypes(t *testing.T) {
	var got VerificationExtra
	err := got.Scan(42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extra_data type int")
	assert.Error(t, got.Scan([]byte("{")))
}
