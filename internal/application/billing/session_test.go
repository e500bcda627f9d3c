package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticodev/facturele-api/internal/application/billing"
)

const testIssuerID = "3101123456"

func newTestSession() (*billing.DocumentSession, *memSequenceRepo) {
	repo := newMemSequenceRepo()
	numbering := billing.NewNumberingService(repo)
	return billing.NewDocumentSession(numbering, testScope(), testIssuerID), repo
}

func TestSession_EnsureKeyAcunaUnaSolaVez(t *testing.T) {
	session, _ := newTestSession()
	issuedAt := time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)

	first, err := session.EnsureKey(context.Background(), issuedAt, "1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Len(t, first.Clave, 50)

	// Recalcular líneas, totales o lo que sea: la clave no cambia.
	second, err := session.EnsureKey(context.Background(), issuedAt.Add(time.Hour), "1")
	require.NoError(t, err)
	assert.Same(t, first, second, "EnsureKey debe devolver la misma clave memorizada")
}

func TestSession_KeyNilAntesDeAcunar(t *testing.T) {
	session, _ := newTestSession()
	assert.Nil(t, session.Key())
}

func TestSession_ResetDescartaSinReusarConsecutivo(t *testing.T) {
	session, _ := newTestSession()
	issuedAt := time.Now()

	first, err := session.EnsureKey(context.Background(), issuedAt, "1")
	require.NoError(t, err)

	session.Reset()
	assert.Nil(t, session.Key())

	second, err := session.EnsureKey(context.Background(), issuedAt, "1")
	require.NoError(t, err)

	assert.NotEqual(t, first.Clave, second.Clave)
	assert.Equal(t, first.Sequence+1, second.Sequence,
		"el consecutivo descartado queda quemado, el nuevo es el siguiente")
}

func TestSession_ErrorDeNumeracionNoDejaClaveParcial(t *testing.T) {
	repo := newMemSequenceRepo()
	repo.getErr = errTransport
	numbering := billing.NewNumberingService(repo)
	session := billing.NewDocumentSession(numbering, testScope(), testIssuerID)

	_, err := session.EnsureKey(context.Background(), time.Now(), "1")
	require.Error(t, err)
	assert.Nil(t, session.Key())

	// Al recuperarse el repositorio, la sesión acuña con normalidad.
	repo.getErr = nil
	key, err := session.EnsureKey(context.Background(), time.Now(), "1")
	require.NoError(t, err)
	assert.Len(t, key.Clave, 50)
}
