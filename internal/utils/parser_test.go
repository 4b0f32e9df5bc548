package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momo-proxy-backend/internal/domain"
)

func TestParseNotice(t *testing.T) {
	t.Run("Push funds", func(t *testing.T) {
		fact := ParseNotice("Depot vers 224600000001 reussi. Montant 2000 GNF. ID Transaction: CI240101.1200.A12345. Nouveau solde: 8000 GNF")
		assert.Equal(t, domain.OutcomeSuccess, fact.Outcome)
		assert.Equal(t, domain.KindPushFunds, fact.Kind)
		assert.Equal(t, "224600000001", fact.Counterparty)
		assert.True(t, fact.Amount.Equal(d("2000")))
		require.NotNil(t, fact.CorrelationID)
		assert.Equal(t, "CI240101.1200.A12345", *fact.CorrelationID)
		assert.True(t, fact.Actionable())
	})

	t.Run("Pull funds with decimals", func(t *testing.T) {
		fact := ParseNotice("Retrait de 224600000002 effectue. Montant 5000.00 GNF.")
		assert.Equal(t, domain.OutcomeSuccess, fact.Outcome)
		assert.Equal(t, domain.KindPullFunds, fact.Kind)
		assert.Equal(t, "224600000002", fact.Counterparty)
		assert.True(t, fact.Amount.Equal(d("5000")))
		assert.Nil(t, fact.CorrelationID)
	})

	t.Run("Airtime across lines", func(t *testing.T) {
		fact := ParseNotice("Rechargement reussi.\nMontant de la transaction : 1000 GNF,\nOther msisdn 224600000003. ID: R240101.0001")
		assert.Equal(t, domain.OutcomeSuccess, fact.Outcome)
		assert.Equal(t, domain.KindAirtime, fact.Kind)
		assert.Equal(t, "224600000003", fact.Counterparty)
		assert.True(t, fact.Amount.Equal(d("1000")))
		require.NotNil(t, fact.CorrelationID)
		assert.Equal(t, "R240101.0001", *fact.CorrelationID)
	})

	t.Run("Failure phrase wins over template", func(t *testing.T) {
		fact := ParseNotice("Echec: Depot vers 224600000001 reussi. Montant 2000")
		assert.Equal(t, domain.OutcomeFailure, fact.Outcome)
		assert.Empty(t, fact.Kind)
		assert.False(t, fact.Actionable())
	})

	t.Run("Accented failure", func(t *testing.T) {
		fact := ParseNotice("Votre transaction a échoué")
		assert.Equal(t, domain.OutcomeFailure, fact.Outcome)
	})

	t.Run("Unrecognised text is a failure", func(t *testing.T) {
		fact := ParseNotice("Bonjour, votre solde est de 10000 GNF")
		assert.Equal(t, domain.OutcomeFailure, fact.Outcome)
		assert.False(t, fact.Actionable())
		assert.Equal(t, "Bonjour, votre solde est de 10000 GNF", fact.Raw)
	})
}

func TestDecodeNotice(t *testing.T) {
	assert.Equal(t, "Depot vers 1 reussi", DecodeNotice([]byte(`{"body":"Depot vers 1 reussi"}`)))
	assert.Equal(t, "plain text", DecodeNotice([]byte("plain text")))
	assert.Equal(t, `{"other":"x"}`, DecodeNotice([]byte(`{"other":"x"}`)))
}
