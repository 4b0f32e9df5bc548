package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/repository"
)

type destinationResolver struct {
	countryRepo repository.CountryRepository
}

func NewDestinationResolver(countryRepo repository.CountryRepository) DestinationResolver {
	return &destinationResolver{countryRepo: countryRepo}
}

// Resolve picks the destination country from the explicit hint when given,
// otherwise from the longest phone code that prefixes the counterparty.
func (r *destinationResolver) Resolve(ctx context.Context, countryHint *string, counterparty string) (*domain.Country, error) {
	if countryHint != nil && *countryHint != "" {
		country, err := r.countryRepo.GetByISO(ctx, strings.ToUpper(*countryHint))
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown country code %s", domain.ErrNoCountry, *countryHint)
		}
		if err != nil {
			return nil, err
		}
		if !country.IsActive {
			return nil, fmt.Errorf("%w: country %s is inactive", domain.ErrNoCountry, country.ISOCode)
		}
		return country, nil
	}

	countries, err := r.countryRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var best *domain.Country
	for i := range countries {
		code := strings.TrimPrefix(countries[i].PhoneCode, "+")
		if code == "" || !strings.HasPrefix(counterparty, code) {
			continue
		}
		if best == nil || len(code) > len(strings.TrimPrefix(best.PhoneCode, "+")) {
			best = &countries[i]
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no phone code matches %s", domain.ErrNoCountry, counterparty)
	}
	return best, nil
}
