package utils

import "strings"

// Phrases the gateway echoes back when the network refused a USSD request
// outright. Matched case-insensitively anywhere in the response.
var ussdFailurePhrases = []string{
	"echec",
	"erreur",
	"invalid",
	"montant minimum",
	"vous devez attendre",
	"insufficient",
	"temporarily unavailable",
	"balance insuffisante",
	"too many",
	"not allowed",
	"limit",
}

// IsUSSDFailure reports whether an immediate gateway response is a refusal.
// An empty response is not treated as a refusal; the caller decides.
func IsUSSDFailure(response string) bool {
	lower := strings.ToLower(response)
	for _, phrase := range ussdFailurePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
